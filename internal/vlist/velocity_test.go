package vlist

import (
	"math"
	"testing"
	"time"
)

func TestOverscanTargetStaysBounded(t *testing.T) {
	c := newOverscanController(DefaultOptions().normalize())

	velocities := []float64{-10, 0, 0.01, 0.5, 1, 2, 4, 8, 50, 1e6, math.Inf(1)}
	for _, v := range velocities {
		target := c.target(v)
		if target < 5 || target > 20 {
			t.Fatalf("target(%v) = %v outside [5,20]", v, target)
		}
		c.step(target)
		if n := c.count(); n < 5 || n > 20 {
			t.Fatalf("count after target(%v) = %d outside [5,20]", v, n)
		}
	}

	if got := c.target(0); got != 8 {
		t.Fatalf("target at rest = %v, want the baseline", got)
	}
}

func TestOverscanStaysBoundedUnderWildScrolling(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(5000))
	h.list.SetViewportHeight(600)

	deltas := []int{1, 50000, -50000, 3, 120000, 7, -2, 400000}
	for round := 0; round < 40; round++ {
		h.step(time.Millisecond)
		h.list.ScrollBy(deltas[round%len(deltas)])
		if n := h.list.Overscan(); n < 5 || n > 20 {
			t.Fatalf("overscan %d outside [5,20]", n)
		}
	}
	for i := 0; i < 200; i++ {
		h.frames(1)
		if n := h.list.Overscan(); n < 5 || n > 20 {
			t.Fatalf("overscan %d outside [5,20] while decaying", n)
		}
	}
}

func TestVelocityPhaseTransitions(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(500))
	h.list.SetViewportHeight(600)

	if h.list.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %v", h.list.Phase())
	}

	h.list.ScrollBy(20)
	if h.list.Phase() != PhaseTracking {
		t.Fatalf("expected tracking after the first event, got %v", h.list.Phase())
	}
	if h.list.Velocity() != 0 {
		t.Fatalf("the first event should only seed the tracker")
	}

	h.step(16 * time.Millisecond)
	h.list.ScrollBy(32)
	if h.list.Velocity() <= 0 {
		t.Fatalf("expected a positive velocity")
	}

	h.step(150 * time.Millisecond)
	if h.list.Phase() != PhaseTracking {
		t.Fatalf("decay started before the quiet interval: %v", h.list.Phase())
	}

	for i := 0; i < 6; i++ {
		h.frames(1)
	}
	if h.list.Phase() != PhaseDecaying {
		t.Fatalf("expected decaying after the quiet interval, got %v", h.list.Phase())
	}

	h.step(16 * time.Millisecond)
	h.list.ScrollBy(10)
	if h.list.Phase() != PhaseTracking {
		t.Fatalf("a scroll event should resume tracking, got %v", h.list.Phase())
	}

	for i := 0; i < 500 && h.list.Phase() != PhaseIdle; i++ {
		h.frames(1)
	}
	if h.list.Phase() != PhaseIdle {
		t.Fatalf("tracker never returned to idle")
	}
	if h.list.Overscan() != 8 {
		t.Fatalf("overscan %d not back at baseline", h.list.Overscan())
	}
	if h.loop.Pending() {
		t.Fatalf("frames still scheduled while idle")
	}
}

func TestOverscanDecaysAfterBurst(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(5000))
	h.list.SetViewportHeight(600)

	for i := 0; i < 30; i++ {
		h.step(16 * time.Millisecond)
		h.list.ScrollBy(32)
	}
	if v := h.list.Velocity(); math.Abs(v-2) > 0.1 {
		t.Fatalf("burst velocity = %v, want about 2", v)
	}
	peak := h.list.Overscan()
	if peak <= 8 {
		t.Fatalf("overscan did not rise during the burst: %d", peak)
	}

	// 250ms of silence.
	for elapsed := time.Duration(0); elapsed < 250*time.Millisecond; elapsed += 16 * time.Millisecond {
		h.frames(1)
	}
	if h.list.Phase() != PhaseDecaying {
		t.Fatalf("expected decaying, got %v", h.list.Phase())
	}

	prev := h.list.Overscan()
	frames := 0
	for h.list.Phase() != PhaseIdle {
		h.frames(1)
		frames++
		cur := h.list.Overscan()
		if cur > prev {
			t.Fatalf("overscan rose while decaying: %d -> %d", prev, cur)
		}
		prev = cur
		if frames > 120 {
			t.Fatalf("overscan did not settle within %d frames (at %d)", frames, cur)
		}
	}
	if prev != 8 {
		t.Fatalf("overscan settled at %d, want baseline 8", prev)
	}
}

func TestResizeResetsVelocityAndOverscan(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.list.SetItems(ids(1000))
	h.list.SetViewportHeight(600)

	for i := 0; i < 10; i++ {
		h.step(16 * time.Millisecond)
		h.list.ScrollBy(200)
	}
	h.list.ReportHeight(3, 400, false)
	if h.list.Overscan() == 8 {
		t.Fatalf("expected overscan above baseline before resize")
	}

	h.list.SetViewportHeight(900)
	if h.list.Phase() != PhaseIdle || h.list.Velocity() != 0 || h.list.Overscan() != 8 {
		t.Fatalf("resize did not reset: phase=%v velocity=%v overscan=%d",
			h.list.Phase(), h.list.Velocity(), h.list.Overscan())
	}

	h.frames(1)
	if h.list.Pending() != 0 {
		t.Fatalf("queued heights were lost or not flushed after resize")
	}
	if h.loop.Pending() {
		t.Fatalf("velocity frames still scheduled after resize")
	}
}

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{x: -1, want: 0},
		{x: 0, want: 0},
		{x: 4, want: 0.5},
		{x: 8, want: 1},
		{x: 80, want: 1},
	}
	for _, tc := range tests {
		if got := smoothstep(0, 8, tc.x); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("smoothstep(0,8,%v) = %v, want %v", tc.x, got, tc.want)
		}
	}
}
