package vlist

import "testing"

func TestAnchorAlignsDeepLink(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(50))
	h.list.SetViewportHeight(600)

	h.list.SetAnchor("c27")
	if got, want := h.list.ScrollOffset(), h.list.Top(27); got != want || got != 3240 {
		t.Fatalf("scroll offset = %d, want top(27) = %d", got, want)
	}
	if !h.list.Anchored() {
		t.Fatalf("anchor should be pinned after resolving")
	}
	w := h.list.Window()
	if w.VisibleFirst != 27 {
		t.Fatalf("first visible row = %d, want 27", w.VisibleFirst)
	}
}

func TestAnchorCases(t *testing.T) {
	tests := []struct {
		name     string
		items    int
		anchor   string
		wantOff  int
		anchored bool
	}{
		{name: "unknown identity", items: 50, anchor: "missing", wantOff: 0, anchored: false},
		{name: "first row", items: 50, anchor: "c0", wantOff: 0, anchored: true},
		{name: "clamped near the end", items: 50, anchor: "c49", wantOff: 50*120 - 600, anchored: true},
		{name: "empty target", items: 50, anchor: "", wantOff: 0, anchored: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, DefaultOptions())
			h.list.SetItems(ids(tc.items))
			h.list.SetViewportHeight(600)
			h.list.SetAnchor(tc.anchor)
			if got := h.list.ScrollOffset(); got != tc.wantOff {
				t.Fatalf("scroll offset = %d, want %d", got, tc.wantOff)
			}
			if h.list.Anchored() != tc.anchored {
				t.Fatalf("anchored = %v, want %v", h.list.Anchored(), tc.anchored)
			}
		})
	}
}

func TestAnchorResolvesWhenPageArrives(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(10))
	h.list.SetViewportHeight(600)

	h.list.SetAnchor("c27")
	if h.list.ScrollOffset() != 0 || h.list.Anchored() {
		t.Fatalf("anchor resolved before its identity was loaded")
	}

	h.list.SetItems(ids(50))
	if got := h.list.ScrollOffset(); got != 3240 {
		t.Fatalf("anchor not applied after the page landed: %d", got)
	}

	h.list.SetItems(ids(60))
	if got := h.list.ScrollOffset(); got != 3240 {
		t.Fatalf("anchor moved on a later page: %d", got)
	}
}

func TestPinnedAnchorFollowsMeasurements(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(50))
	h.list.SetViewportHeight(600)
	h.list.SetAnchor("c27")

	h.list.ReportHeight(3, 300, false)
	h.frames(1)
	if got := h.list.ScrollOffset(); got != 3240+180 {
		t.Fatalf("anchor not realigned after a flush above it: %d", got)
	}

	h.list.SetItems(append([]string{"n0", "n1"}, ids(50)...))
	if got, want := h.list.ScrollOffset(), h.list.Top(29); got != want {
		t.Fatalf("anchor did not follow its identity: offset %d, top(29) %d", got, want)
	}
}

func TestUserScrollReleasesAnchor(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(50))
	h.list.SetViewportHeight(600)
	h.list.SetAnchor("c27")

	h.list.ScrollBy(10)
	if h.list.Anchored() {
		t.Fatalf("user scroll should release the anchor")
	}
	h.list.ReportHeight(3, 300, false)
	h.list.Flush()
	if got := h.list.ScrollOffset(); got != 3250 {
		t.Fatalf("released anchor still moved the viewport: %d", got)
	}
}
