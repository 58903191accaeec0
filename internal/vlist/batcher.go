package vlist

import "time"

type pendingUpdate struct {
	height  int
	loading bool
}

// batcher coalesces height reports between frames. Reports only land in
// the queue; the store changes in one pass when the queue is flushed.
type batcher struct {
	pending map[int]pendingUpdate
	handle  Handle
}

func newBatcher() *batcher {
	return &batcher{pending: make(map[int]pendingUpdate)}
}

// take swaps the queue out so reports made during a flush land in the next
// batch.
func (b *batcher) take() map[int]pendingUpdate {
	batch := b.pending
	b.pending = make(map[int]pendingUpdate)
	return batch
}

func (b *batcher) cancel() {
	if b.handle != nil {
		b.handle.Cancel()
		b.handle = nil
	}
}

func (b *batcher) drop(index int) {
	delete(b.pending, index)
}

// ReportHeight queues a measured height for index. Invalid heights and
// indices outside the current sequence are discarded, and so is a report
// that repeats the stored state while nothing else is queued for the row.
func (l *List) ReportHeight(index int, height float64, loading bool) {
	if !l.alive || index < 0 || index >= len(l.items) {
		return
	}
	h, ok := l.store.normalizeHeight(height)
	if !ok {
		return
	}
	if _, queued := l.batch.pending[index]; !queued && l.store.current(index, h, loading) {
		return
	}
	l.batch.pending[index] = pendingUpdate{height: h, loading: loading}
	l.scheduleFlush()
}

// scheduleFlush books one flush. While the user is scrolling the flush
// waits a few frames to keep layout work off the hot path.
func (l *List) scheduleFlush() {
	if l.batch.handle != nil || l.sched == nil {
		return
	}
	frames := 1
	if l.velocity.phase != PhaseIdle {
		frames = l.opts.ScrollFlushFrames
	}
	l.batch.handle = l.sched.AfterFunc(time.Duration(frames)*l.opts.FrameInterval, func(time.Time) {
		l.batch.handle = nil
		if !l.alive {
			return
		}
		l.Flush()
	})
}

// Flush applies every queued height in a single commit and invalidates the
// offset table once, from the lowest index that changed.
func (l *List) Flush() {
	if !l.alive {
		return
	}
	l.batch.cancel()
	if len(l.batch.pending) == 0 {
		return
	}

	batch := l.batch.take()

	// Rows whose height can move in this pass: the reported ones, and the
	// unmeasured expanded rows that follow the pattern cache.
	touched := make(map[int]struct{}, len(batch))
	for index := range batch {
		if index < len(l.items) {
			touched[index] = struct{}{}
		}
	}
	for _, index := range l.store.expandedIndices() {
		touched[index] = struct{}{}
	}
	before := l.heightOf(touched)

	lowest, applied, dropped := -1, 0, 0
	for index, u := range batch {
		if index >= len(l.items) || !l.store.apply(index, u.height, u.loading) {
			dropped++
			continue
		}
		applied++
		if lowest < 0 || index < lowest {
			lowest = index
		}
	}
	if k := l.store.takeShift(); k >= 0 && (lowest < 0 || k < lowest) {
		lowest = k
	}
	l.offsets.adjust(l.heightOf(touched) - before)

	if lowest >= 0 {
		l.invalidate(lowest)
		l.realignAnchor()
		l.clampScroll()
	}
	l.obs.Flushed(applied, dropped)
	l.emitProgress()
}

// Pending reports how many rows have queued updates.
func (l *List) Pending() int {
	return len(l.batch.pending)
}
