package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/vfeed/internal/config"
	"github.com/Paintersrp/vfeed/internal/source"
	"github.com/Paintersrp/vfeed/internal/vlist"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type failObserver struct {
	vlist.NopObserver
	failures int
}

func (o *failObserver) PageFailed() { o.failures++ }

type fixture struct {
	t     *testing.T
	m     *Model
	src   *source.SyntheticSource
	clock *testClock
	obs   *failObserver
	clip  []string
}

func newFixture(t *testing.T, count, pageSize int, anchor string, srcOpts ...source.SyntheticOption) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Source.PageSize = pageSize
	cfg.UI.GlamourStyle = "notty"

	f := &fixture{
		t:     t,
		src:   source.NewSyntheticSource(count, srcOpts...),
		clock: &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		obs:   &failObserver{},
	}
	f.m = New(Options{
		Config:   cfg,
		Pager:    f.src,
		Observer: f.obs,
		Anchor:   anchor,
		Clock:    f.clock.Now,
		Clipboard: func(s string) error {
			f.clip = append(f.clip, s)
			return nil
		},
	})
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	f.t.Helper()
	_, cmd := f.m.Update(msg)
	return cmd
}

func (f *fixture) resize(w, h int) {
	f.send(tea.WindowSizeMsg{Width: w, Height: h})
}

// load fetches the page the model would ask for next and delivers it.
func (f *fixture) load(reload bool) {
	f.t.Helper()
	cursor, limit := f.m.next, f.m.cfg.Source.PageSize
	if reload {
		cursor, limit = "", max(len(f.m.items), limit)
	}
	page, err := f.src.Page(context.Background(), cursor, limit)
	f.send(pageMsg{gen: f.m.gen, items: page.Items, next: page.Next, reload: reload, err: err})
}

func (f *fixture) detail(id string) {
	f.t.Helper()
	body, err := f.src.Detail(context.Background(), id)
	if err != nil {
		f.t.Fatalf("Detail(%q) returned error: %v", id, err)
	}
	f.send(detailMsg{id: id, body: body})
}

func (f *fixture) frame(d time.Duration) {
	f.clock.now = f.clock.now.Add(d)
	f.send(FrameMsg(f.clock.now))
}

func (f *fixture) press(k string) tea.Cmd {
	switch k {
	case "enter":
		return f.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "ctrl+d":
		return f.send(tea.KeyMsg{Type: tea.KeyCtrlD})
	}
	return f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestFeedRendersOnlyWindowRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 200, 200, "")
	f.resize(80, 30)
	f.load(false)

	if got := len(f.m.items); got != 200 {
		t.Fatalf("expected 200 items, got %d", got)
	}
	if n := len(f.m.rows); n == 0 || n > 40 {
		t.Fatalf("expected a bounded set of rendered rows, got %d", n)
	}

	view := f.m.View()
	if !strings.Contains(view, "Card 0") {
		t.Fatalf("expected first card in view:\n%s", view)
	}
	if strings.Contains(view, "Card 150") {
		t.Fatalf("did not expect a far row in view")
	}
	if got := lipgloss.Height(view); got != 30 {
		t.Fatalf("expected view to fill the terminal, got %d lines", got)
	}
}

func TestFeedPrefetchesNearTail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 120, 50, "")
	f.resize(80, 30)
	f.load(false)
	if f.m.fetching {
		t.Fatalf("first page should not prefetch at the top")
	}

	f.press("G")
	if f.m.selected != 49 {
		t.Fatalf("expected last row selected, got %d", f.m.selected)
	}
	f.frame(60 * time.Millisecond)
	if !f.m.fetching {
		t.Fatalf("expected a page request after the debounce")
	}

	f.load(false)
	if got := len(f.m.items); got != 100 {
		t.Fatalf("expected 100 items after second page, got %d", got)
	}
	if got := f.m.list.Len(); got != 100 {
		t.Fatalf("expected list to follow items, got %d", got)
	}
	if f.m.items[f.m.selected].ID != "c49" {
		t.Fatalf("selection should keep its item, got %s", f.m.items[f.m.selected].ID)
	}
}

func TestFeedPageFailureWaitsForReload(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 120, 50, "", source.WithFailEvery(2))
	f.resize(80, 30)
	f.load(false)
	f.press("G")
	f.frame(60 * time.Millisecond)
	f.load(false)

	if f.m.pageErr == nil {
		t.Fatalf("expected page error to be recorded")
	}
	if !strings.Contains(f.m.status, "failed to load page") {
		t.Fatalf("unexpected status %q", f.m.status)
	}
	if f.obs.failures != 1 {
		t.Fatalf("expected observer to see one failure, got %d", f.obs.failures)
	}
	if (feedSource{f.m}).HasNextPage() {
		t.Fatalf("paging should pause after a failure")
	}

	f.frame(200 * time.Millisecond)
	if f.m.fetching {
		t.Fatalf("did not expect another request before reload")
	}

	stale := f.m.gen
	if cmd := f.press("r"); cmd == nil {
		t.Fatalf("expected reload command")
	}
	if f.m.pageErr != nil || !f.m.fetching {
		t.Fatalf("reload should clear the error and fetch")
	}

	f.send(pageMsg{gen: stale, items: []source.Item{{ID: "zzz"}}})
	if _, ok := f.m.list.IndexOf("zzz"); ok {
		t.Fatalf("stale page should be ignored")
	}

	f.load(true)
	if got := len(f.m.items); got != 50 {
		t.Fatalf("expected reload to restore 50 items, got %d", got)
	}
	if f.m.status != "" {
		t.Fatalf("expected status cleared, got %q", f.m.status)
	}
}

func TestFeedExpandLoadsDetailAndRemeasures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10, 10, "")
	f.resize(80, 40)
	f.load(false)

	if cmd := f.press("enter"); cmd == nil {
		t.Fatalf("expected detail fetch command")
	}
	if !f.m.list.Expanded(0) {
		t.Fatalf("expected row 0 expanded")
	}
	if !strings.Contains(f.m.rows[0], "loading") {
		t.Fatalf("expected placeholder, got %q", f.m.rows[0])
	}

	f.detail("c0")
	f.frame(100 * time.Millisecond)

	if !strings.Contains(f.m.rows[0], "Card 0") || strings.Contains(f.m.rows[0], "loading") {
		t.Fatalf("expected rendered detail, got %q", f.m.rows[0])
	}
	if f.m.list.Loading(0) {
		t.Fatalf("row should no longer be loading")
	}
	if got, want := f.m.list.Top(1), lipgloss.Height(f.m.rows[0]); got != want {
		t.Fatalf("expected row 1 at %d after measurement, got %d", want, got)
	}

	// Collapsing again needs no fetch.
	if cmd := f.press("enter"); cmd != nil {
		t.Fatalf("collapse should not fetch")
	}
	if cmd := f.press("enter"); cmd != nil {
		t.Fatalf("cached body should not be fetched again")
	}
}

func TestFeedWidthChangeRemeasures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10, 10, "")
	f.resize(100, 40)
	f.load(false)
	f.press("enter")
	f.detail("c0")
	f.frame(100 * time.Millisecond)
	wide := f.m.list.Top(1)

	f.resize(40, 40)
	f.frame(100 * time.Millisecond)

	if !f.m.list.Expanded(0) {
		t.Fatalf("expansion should survive a resize")
	}
	if f.m.bodies.Len() != 1 {
		t.Fatalf("detail bodies should survive a resize")
	}
	narrow := f.m.list.Top(1)
	if got := lipgloss.Height(f.m.rows[0]); narrow != got {
		t.Fatalf("expected remeasured height %d, got %d", got, narrow)
	}
	if narrow <= wide {
		t.Fatalf("expected narrower terminal to grow the row: wide %d narrow %d", wide, narrow)
	}
}

func TestFeedAnchorSeeksAcrossPages(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 120, 50, "c80")
	f.resize(80, 30)
	f.load(false)

	if !f.m.fetching {
		t.Fatalf("expected the model to keep paging toward the anchor")
	}
	f.load(false)

	if got := f.m.selected; got != 80 {
		t.Fatalf("expected anchor selected, got %d", got)
	}
	if got, want := f.m.list.ScrollOffset(), f.m.list.Top(80); got != want {
		t.Fatalf("expected scroll %d, got %d", want, got)
	}
	if !f.m.anchorDone {
		t.Fatalf("expected anchor to be resolved")
	}
}

func TestFeedScrollDragsSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 100, 100, "")
	f.resize(80, 30)
	f.load(false)

	f.press("ctrl+d")
	w := f.m.list.Window()
	if f.m.selected < w.VisibleFirst || f.m.selected > w.VisibleLast {
		t.Fatalf("selection %d outside visible rows %d..%d", f.m.selected, w.VisibleFirst, w.VisibleLast)
	}

	f.press("g")
	if f.m.selected != 0 || f.m.list.ScrollOffset() != 0 {
		t.Fatalf("expected top, got selected %d scroll %d", f.m.selected, f.m.list.ScrollOffset())
	}

	for i := 0; i < 15; i++ {
		f.press("j")
	}
	w = f.m.list.Window()
	if f.m.selected != 15 || f.m.selected > w.VisibleLast {
		t.Fatalf("cursor should stay visible: selected %d last %d", f.m.selected, w.VisibleLast)
	}
}

func TestFeedTickFollowsEarliestCallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 100, 100, "")
	f.resize(80, 30)
	f.load(false)
	for i := 0; i < 50; i++ {
		if _, ok := f.m.loop.Next(); !ok {
			break
		}
		f.frame(20 * time.Millisecond)
	}
	f.frame(time.Second)
	if due, ok := f.m.loop.Next(); ok {
		t.Fatalf("engine still has work at rest, next due %v", due.Sub(f.clock.now))
	}
	if f.m.ticking {
		t.Fatalf("tick still booked at rest")
	}

	f.m.loop.AfterFunc(500*time.Millisecond, func(time.Time) {})
	if cmd := f.send(struct{}{}); cmd == nil {
		t.Fatalf("expected a tick command")
	}
	if want := f.clock.now.Add(500 * time.Millisecond); !f.m.ticking || !f.m.tickDue.Equal(want) {
		t.Fatalf("tick due %v, want %v", f.m.tickDue, want)
	}

	if cmd := f.press("ctrl+d"); cmd == nil {
		t.Fatalf("expected an earlier tick command after scrolling")
	}
	if want := f.clock.now.Add(f.m.list.Options().FrameInterval); !f.m.tickDue.Equal(want) {
		t.Fatalf("tick due %v, want the next frame at %v", f.m.tickDue, want)
	}

	// The frame tick lands first and books the one after it.
	f.frame(f.m.list.Options().FrameInterval)
	if !f.m.ticking {
		t.Fatalf("expected the next frame to be booked while scrolling")
	}
}

func TestFeedWatcherChangeReloads(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10, 10, "")
	f.resize(80, 30)
	f.load(false)
	f.press("enter")
	f.detail("c0")

	gen := f.m.gen
	f.send(source.ChangedMsg{Paths: []string{"c0"}})

	if _, ok := f.m.bodies.Peek("c0"); ok {
		t.Fatalf("changed body should be evicted")
	}
	if f.m.gen != gen+1 || !f.m.fetching {
		t.Fatalf("expected a reload request")
	}
}

func TestFeedCopyAndQuit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10, 10, "")
	f.resize(80, 30)
	f.load(false)

	f.press("j")
	f.press("y")
	if len(f.clip) != 1 || f.clip[0] != "c1" {
		t.Fatalf("unexpected clipboard writes %v", f.clip)
	}
	if f.m.status != "copied c1" {
		t.Fatalf("unexpected status %q", f.m.status)
	}

	if cmd := f.press("q"); cmd == nil {
		t.Fatalf("expected quit command")
	}
	if f.m.list.Alive() {
		t.Fatalf("quit should close the list")
	}
}
