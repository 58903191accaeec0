package vlist

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Add(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

type harness struct {
	t     *testing.T
	clock *fakeClock
	loop  *Loop
	list  *List
}

func newHarness(t *testing.T, opts Options, with ...Option) *harness {
	t.Helper()
	clock := newFakeClock()
	loop := NewLoop(clock.Now)
	with = append([]Option{WithClock(clock.Now)}, with...)
	return &harness{
		t:     t,
		clock: clock,
		loop:  loop,
		list:  New(opts, loop, with...),
	}
}

// step moves the clock forward by d and runs whatever became due.
func (h *harness) step(d time.Duration) int {
	return h.loop.Advance(h.clock.Add(d))
}

// frames runs n frame intervals.
func (h *harness) frames(n int) {
	for i := 0; i < n; i++ {
		h.step(h.list.Options().FrameInterval)
	}
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("c%d", i)
	}
	return out
}

type countingSource struct {
	hasNext bool
	calls   int
}

func (s *countingSource) HasNextPage() bool { return s.hasNext }

func (s *countingSource) LoadMore() { s.calls++ }
