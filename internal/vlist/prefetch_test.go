package vlist

import (
	"testing"
	"time"
)

func TestPrefetchIsIdempotentWhileInFlight(t *testing.T) {
	src := &countingSource{hasNext: true}
	h := newHarness(t, DefaultOptions(), WithDataSource(src))
	h.list.SetItems(ids(10))
	h.list.SetViewportHeight(2000)

	for i := 0; i < 25; i++ {
		h.list.Render()
	}
	if src.calls != 0 {
		t.Fatalf("LoadMore ran before the debounce elapsed")
	}

	h.step(60 * time.Millisecond)
	for i := 0; i < 25; i++ {
		h.list.Render()
		h.step(60 * time.Millisecond)
	}
	if src.calls != 1 {
		t.Fatalf("expected exactly one LoadMore, got %d", src.calls)
	}

	h.list.SetItems(ids(20))
	h.list.ScrollTo(h.list.TotalHeight())
	h.list.Render()
	h.step(60 * time.Millisecond)
	if src.calls != 2 {
		t.Fatalf("expected a second LoadMore after the page landed, got %d", src.calls)
	}
}

func TestPrefetchConditions(t *testing.T) {
	tests := []struct {
		name     string
		items    int
		hasNext  bool
		scrollTo int
		want     int
	}{
		{name: "far from the tail", items: 200, hasNext: true, scrollTo: 0, want: 0},
		{name: "at the tail", items: 200, hasNext: true, scrollTo: 200 * 120, want: 1},
		{name: "no more pages", items: 200, hasNext: false, scrollTo: 200 * 120, want: 0},
		{name: "empty list loads the first page", items: 0, hasNext: true, scrollTo: 0, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &countingSource{hasNext: tc.hasNext}
			h := newHarness(t, DefaultOptions(), WithDataSource(src))
			h.list.SetItems(ids(tc.items))
			h.list.SetViewportHeight(600)
			h.list.ScrollTo(tc.scrollTo)

			h.list.Render()
			h.step(time.Second)
			if src.calls != tc.want {
				t.Fatalf("LoadMore called %d times, want %d", src.calls, tc.want)
			}
		})
	}
}

func TestPrefetchRetriggersAfterFailedFetch(t *testing.T) {
	src := &countingSource{hasNext: true}
	h := newHarness(t, DefaultOptions(), WithDataSource(src))
	h.list.SetItems(ids(3))
	h.list.SetViewportHeight(600)

	h.list.Render()
	h.step(time.Second)
	if src.calls != 1 {
		t.Fatalf("expected one request, got %d", src.calls)
	}

	h.list.PageSettled()
	h.list.Render()
	h.step(time.Second)
	if src.calls != 2 {
		t.Fatalf("expected the next render to request again, got %d", src.calls)
	}
}

func TestPrefetchDebounceRechecksCondition(t *testing.T) {
	src := &countingSource{hasNext: true}
	h := newHarness(t, DefaultOptions(), WithDataSource(src))
	h.list.SetItems(ids(3))
	h.list.SetViewportHeight(600)

	h.list.Render()
	src.hasNext = false
	h.step(time.Second)
	if src.calls != 0 {
		t.Fatalf("debounced request ignored a source that ran out of pages")
	}
}
