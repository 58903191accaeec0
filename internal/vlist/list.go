package vlist

import (
	"time"

	"github.com/google/uuid"
)

// Option configures a List at construction.
type Option func(*List)

// WithDataSource wires the paging collaborator used by the prefetch trigger.
func WithDataSource(src DataSource) Option {
	return func(l *List) {
		l.prefetch.source = src
	}
}

// WithBridge wires the measurement collaborator handed every rendered row.
func WithBridge(b MeasurementBridge) Option {
	return func(l *List) {
		l.bridge = b
	}
}

// WithObserver wires activity notifications.
func WithObserver(o Observer) Option {
	return func(l *List) {
		if o != nil {
			l.obs = o
		}
	}
}

// WithClock replaces time.Now for scroll event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *List) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// List is one virtualized list instance. It is not safe for concurrent use;
// every call must come from the goroutine that advances its Scheduler.
type List struct {
	id     string
	opts   Options
	sched  Scheduler
	clock  func() time.Time
	obs    Observer
	bridge MeasurementBridge

	items []string
	index map[string]int

	store    *HeightStore
	offsets  *offsetTable
	batch    *batcher
	velocity velocityTracker
	overscan *overscanController
	frame    Handle
	prefetch prefetchTrigger
	anchor   anchorNavigator

	viewport   int
	scroll     int
	alive      bool
	onProgress func(Progress)
}

// New returns an empty List that schedules its frame and flush callbacks
// on sched.
func New(opts Options, sched Scheduler, with ...Option) *List {
	opts = opts.normalize()
	l := &List{
		id:       uuid.NewString(),
		opts:     opts,
		sched:    sched,
		clock:    time.Now,
		obs:      NopObserver{},
		index:    make(map[string]int),
		store:    newHeightStore(opts),
		batch:    newBatcher(),
		velocity: velocityTracker{opts: opts},
		overscan: newOverscanController(opts),
		prefetch: prefetchTrigger{
			threshold: opts.PrefetchThreshold,
			delay:     opts.PrefetchDebounce,
		},
		alive: true,
	}
	l.offsets = newOffsetTable(l.store.Height)
	l.anchor.set("")
	for _, fn := range with {
		fn(l)
	}
	return l
}

// ID identifies this instance in logs.
func (l *List) ID() string { return l.id }

// Options returns the normalized tuning in effect.
func (l *List) Options() Options { return l.opts }

// Heights exposes the height store for reading.
func (l *List) Heights() *HeightStore { return l.store }

// Len returns the number of loaded items.
func (l *List) Len() int { return len(l.items) }

// Items returns a copy of the loaded identities.
func (l *List) Items() []string {
	return append([]string(nil), l.items...)
}

// IndexOf resolves an identity in the current sequence.
func (l *List) IndexOf(id string) (int, bool) {
	i, ok := l.index[id]
	return i, ok
}

// SetItems replaces the item sequence. Per-row state follows identities, so
// measurements survive reordering and insertions; offsets are invalidated
// from the first position whose identity changed.
func (l *List) SetItems(ids []string) {
	if !l.alive {
		return
	}
	old := l.items
	lookup := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := lookup[id]; !dup {
			lookup[id] = i
		}
	}

	k := 0
	for k < len(old) && k < len(ids) && old[k] == ids[k] {
		k++
	}

	if k < len(old) {
		move := func(oi int) (int, bool) {
			if oi < k {
				return oi, true
			}
			if oi >= len(old) {
				return 0, false
			}
			ni, ok := lookup[old[oi]]
			return ni, ok
		}
		l.store.remap(move)
		l.offsets.forget()
		batch := l.batch.take()
		for oi, u := range batch {
			if ni, ok := move(oi); ok {
				l.batch.pending[ni] = u
			}
		}
	}

	l.items = append(l.items[:0:0], ids...)
	l.index = lookup
	l.offsets.resize(len(ids))
	if k < len(old) {
		l.invalidate(k)
	}
	if len(ids) > len(old) {
		l.prefetch.settle()
	}

	l.anchor.relocate(lookup)
	if i, ok := l.anchor.resolve(lookup); ok {
		l.alignTo(i)
	} else {
		l.realignAnchor()
	}
	l.clampScroll()
	l.emitProgress()
}

// PageSettled tells the prefetch trigger that a fetch ended without growing
// the sequence, typically because it failed.
func (l *List) PageSettled() {
	l.prefetch.settle()
}

// SetViewportHeight updates the viewport. A real change resets velocity and
// overscan and cancels every scheduled callback; queued height updates are
// kept and flushed on a fresh schedule.
func (l *List) SetViewportHeight(h int) {
	if !l.alive {
		return
	}
	if h < 0 {
		h = 0
	}
	if h == l.viewport {
		return
	}
	l.viewport = h

	l.cancelFrame()
	l.batch.cancel()
	l.prefetch.cancel()
	prev := l.velocity.phase
	l.velocity.reset()
	l.overscan.reset()
	if prev != PhaseIdle {
		l.obs.PhaseChanged(PhaseIdle)
	}
	if len(l.batch.pending) > 0 {
		l.scheduleFlush()
	}

	l.realignAnchor()
	l.clampScroll()
	l.emitProgress()
}

// Viewport returns the viewport height.
func (l *List) Viewport() int { return l.viewport }

// ScrollTo handles a user scroll to offset. It feeds the velocity tracker
// and releases a pinned anchor.
func (l *List) ScrollTo(offset int) {
	if !l.alive {
		return
	}
	l.scroll = offset
	l.clampScroll()
	l.anchor.release()

	prev := l.velocity.phase
	if l.velocity.sample(l.scroll, l.clock()) {
		l.scheduleFrame()
	}
	if prev != l.velocity.phase {
		l.obs.PhaseChanged(l.velocity.phase)
	}
	l.emitProgress()
}

// ScrollBy scrolls relative to the current offset.
func (l *List) ScrollBy(delta int) {
	l.ScrollTo(l.scroll + delta)
}

// ScrollOffset returns the current scroll position.
func (l *List) ScrollOffset() int { return l.scroll }

// ScrollToIndex aligns the top of index with the viewport start without
// treating it as user input.
func (l *List) ScrollToIndex(index int) {
	if !l.alive || index < 0 || index >= len(l.items) {
		return
	}
	l.alignTo(index)
	l.emitProgress()
}

// SetAnchor targets an identity for alignment. It is resolved now and
// again on every SetItems until found. An empty id clears the anchor.
func (l *List) SetAnchor(id string) {
	if !l.alive {
		return
	}
	l.anchor.set(id)
	if i, ok := l.anchor.resolve(l.index); ok {
		l.alignTo(i)
		l.emitProgress()
	}
}

// Anchored reports whether an anchor is currently pinned.
func (l *List) Anchored() bool { return l.anchor.pinned }

// SetExpanded expands or collapses one row. Offsets are invalidated from
// that row only.
func (l *List) SetExpanded(index int, on bool) {
	if !l.alive || index < 0 || index >= len(l.items) {
		return
	}
	before := l.store.Height(index)
	if !l.store.setExpanded(index, on) {
		return
	}
	l.offsets.adjust(l.store.Height(index) - before)
	l.batch.drop(index)
	l.invalidate(index)
	l.realignAnchor()
	l.clampScroll()
	l.emitProgress()
}

// SetExpansion replaces the whole expansion set, which discards every
// measurement and recomputes offsets from the first row.
func (l *List) SetExpansion(indices []int) {
	if !l.alive {
		return
	}
	valid := indices[:0:0]
	for _, i := range indices {
		if i >= 0 && i < len(l.items) {
			valid = append(valid, i)
		}
	}
	l.store.replaceExpansion(valid)
	l.batch.take()
	l.batch.cancel()
	l.offsets.forget()
	l.invalidate(0)
	l.realignAnchor()
	l.clampScroll()
	l.emitProgress()
}

// Expanded reports whether index is expanded or loading.
func (l *List) Expanded(index int) bool { return l.store.Expanded(index) }

// Loading reports whether index shows a loading placeholder.
func (l *List) Loading(index int) bool { return l.store.Loading(index) }

// ExpandedIndices lists expanded rows, unordered.
func (l *List) ExpandedIndices() []int { return l.store.expandedIndices() }

// Window computes the rows to render. It does not notify collaborators.
func (l *List) Window() Window {
	return calculateWindow(l.offsets, l.viewport, l.scroll, l.overscan.count())
}

// Render computes the window, hands every row to the measurement bridge
// and lets the prefetch trigger inspect the tail.
func (l *List) Render() Window {
	w := l.Window()
	if !l.alive {
		return w
	}
	if l.bridge != nil {
		for _, row := range w.Rows {
			l.bridge.Observe(row, l.reporter(row.Index))
		}
	}
	l.prefetch.check(w.VisibleLast, len(l.items), l.sched, l.firePrefetch)
	return w
}

// reporter binds a Reporter to the identity and display state at index. A
// report arriving after the sequence changed, or after the row was expanded
// or collapsed, is dropped instead of landing on the wrong row or state.
func (l *List) reporter(index int) Reporter {
	id, gen := l.items[index], l.store.generation(index)
	return func(height float64, loading bool) {
		if index >= len(l.items) || l.items[index] != id || l.store.generation(index) != gen {
			return
		}
		l.ReportHeight(index, height, loading)
	}
}

func (l *List) firePrefetch() {
	if !l.alive {
		return
	}
	l.prefetch.inFlight = true
	l.obs.Prefetched()
	l.prefetch.source.LoadMore()
}

// Top returns the absolute top offset of index.
func (l *List) Top(index int) int {
	if index < 0 {
		return 0
	}
	if index > len(l.items) {
		index = len(l.items)
	}
	return l.offsets.top(index)
}

// TotalHeight returns the summed height of every row.
func (l *List) TotalHeight() int { return l.offsets.total() }

// InvalidatedFrom returns the index of the most recent offset invalidation,
// or -1 if none happened.
func (l *List) InvalidatedFrom() int { return l.offsets.invalidatedFrom }

// Overscan returns the current overscan count.
func (l *List) Overscan() int { return l.overscan.count() }

// Phase returns the velocity tracker's state.
func (l *List) Phase() Phase { return l.velocity.phase }

// Velocity returns the smoothed scroll velocity.
func (l *List) Velocity() float64 { return l.velocity.velocity }

// OnProgress registers the scroll progress callback.
func (l *List) OnProgress(fn func(Progress)) { l.onProgress = fn }

// Close tears the instance down. Scheduled callbacks become no-ops.
func (l *List) Close() {
	if !l.alive {
		return
	}
	l.alive = false
	l.cancelFrame()
	l.batch.cancel()
	l.batch.take()
	l.prefetch.cancel()
	l.velocity.reset()
}

// Alive reports whether Close has not been called.
func (l *List) Alive() bool { return l.alive }

func (l *List) scheduleFrame() {
	if l.frame != nil || l.sched == nil {
		return
	}
	l.frame = l.sched.AfterFunc(l.opts.FrameInterval, l.onFrame)
}

func (l *List) cancelFrame() {
	if l.frame != nil {
		l.frame.Cancel()
		l.frame = nil
	}
}

// onFrame advances the velocity state machine and eases the overscan. It
// reschedules itself until the tracker is back to IDLE.
func (l *List) onFrame(now time.Time) {
	l.frame = nil
	if !l.alive {
		return
	}
	prevPhase, prevCount := l.velocity.phase, l.overscan.count()

	l.velocity.tick(now)
	l.overscan.step(l.overscan.target(l.velocity.velocity))
	if l.velocity.phase == PhaseDecaying && l.velocity.velocity == 0 && l.overscan.settled() {
		l.overscan.reset()
		l.velocity.phase = PhaseIdle
	}

	if c := l.overscan.count(); c != prevCount {
		l.obs.OverscanChanged(c)
	}
	if l.velocity.phase != prevPhase {
		l.obs.PhaseChanged(l.velocity.phase)
	}
	if l.velocity.phase != PhaseIdle {
		l.scheduleFrame()
	}
}

func (l *List) invalidate(from int) {
	l.offsets.invalidate(from)
	l.obs.Invalidated(from)
}

// heightOf sums the current heights of rows.
func (l *List) heightOf(rows map[int]struct{}) int {
	sum := 0
	for i := range rows {
		sum += l.store.Height(i)
	}
	return sum
}

func (l *List) maxScroll() int {
	return max(0, l.offsets.total()-l.viewport)
}

// clampScroll keeps the offset inside the scrollable range. At the top it
// avoids forcing the offset table to extend.
func (l *List) clampScroll() {
	if l.scroll <= 0 {
		l.scroll = 0
		return
	}
	l.scroll = clampInt(l.scroll, 0, l.maxScroll())
}

func (l *List) alignTo(index int) {
	l.scroll = clampInt(l.offsets.top(index), 0, l.maxScroll())
}

func (l *List) realignAnchor() {
	if !l.anchor.pinned || l.anchor.index < 0 || l.anchor.index >= len(l.items) {
		return
	}
	l.alignTo(l.anchor.index)
}

func (l *List) emitProgress() {
	if l.onProgress == nil {
		return
	}
	total := l.offsets.total()
	p := Progress{Offset: l.scroll, Viewport: l.viewport, Total: total, Ratio: 1}
	if span := total - l.viewport; span > 0 {
		p.Ratio = float64(l.scroll) / float64(span)
	}
	p.AtEnd = l.scroll+l.viewport >= total
	l.onProgress(p)
}
