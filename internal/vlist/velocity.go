package vlist

import (
	"math"
	"time"
)

// Phase is the state of the scroll velocity tracker.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTracking
	PhaseDecaying
)

func (p Phase) String() string {
	switch p {
	case PhaseTracking:
		return "tracking"
	case PhaseDecaying:
		return "decaying"
	default:
		return "idle"
	}
}

type velocityTracker struct {
	opts       Options
	phase      Phase
	lastOffset int
	lastSample time.Time
	lastEvent  time.Time
	velocity   float64
}

// sample feeds one scroll event. It returns true when the event moved the
// tracker out of IDLE, which is when the host must start scheduling frames.
func (v *velocityTracker) sample(offset int, now time.Time) bool {
	if v.phase == PhaseIdle {
		v.phase = PhaseTracking
		v.lastOffset = offset
		v.lastSample = now
		v.lastEvent = now
		return true
	}

	dt := float64(now.Sub(v.lastSample)) / float64(time.Millisecond)
	if dt < 1 {
		dt = 1
	}
	instant := math.Abs(float64(offset-v.lastOffset)) / dt * v.opts.VelocityScale

	alpha := v.opts.SmoothingMin +
		(v.opts.SmoothingMax-v.opts.SmoothingMin)*smoothstep(0, v.opts.MaxVelocity, instant)
	v.velocity += alpha * (instant - v.velocity)

	v.phase = PhaseTracking
	v.lastOffset = offset
	v.lastSample = now
	v.lastEvent = now
	return false
}

// tick advances the tracker by one frame.
func (v *velocityTracker) tick(now time.Time) {
	switch v.phase {
	case PhaseTracking:
		if now.Sub(v.lastEvent) >= v.opts.QuietInterval {
			v.phase = PhaseDecaying
			v.decay()
		}
	case PhaseDecaying:
		v.decay()
	}
}

func (v *velocityTracker) decay() {
	v.velocity *= v.opts.DecayFactor
	if v.velocity < v.opts.IdleVelocity {
		v.velocity = 0
	}
}

func (v *velocityTracker) reset() {
	v.phase = PhaseIdle
	v.velocity = 0
	v.lastSample = time.Time{}
	v.lastEvent = time.Time{}
}

// smoothstep is the cubic Hermite step between edge0 and edge1.
func smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clampFloat((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
