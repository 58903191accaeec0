// Package vlist implements a variable-height virtualized list engine.
//
// A List owns the measured heights of its rows, a lazily maintained table of
// row offsets, a scroll velocity tracker that drives the overscan margin, a
// prefetch trigger for paged data and an anchor navigator for deep links. It
// is single-threaded: every mutation happens either in a caller's event
// handler or in a callback run by the Scheduler it was built with.
package vlist

import (
	"math"
	"time"
)

// Options tunes a List. Heights and offsets share one unit, whatever the
// host renders in (pixels, terminal rows).
type Options struct {
	// DefaultHeight is the fallback for a collapsed row that was never measured.
	DefaultHeight int
	// ExpandedHeight is the fallback for an expanded row that was never measured.
	ExpandedHeight int
	// LoadingHeight is the fallback for a row showing a loading placeholder.
	LoadingHeight int
	// MinHeight is the floor applied to every stored height.
	MinHeight int
	// MaxHeight caps every stored height so offset sums cannot overflow.
	MaxHeight int
	// JitterThreshold drops measurements within this distance of the stored one.
	JitterThreshold int

	OverscanBaseline int
	OverscanMin      int
	OverscanMax      int

	FrameInterval     time.Duration
	ScrollFlushFrames int
	QuietInterval     time.Duration

	// VelocityScale converts offset units per millisecond into the velocity
	// scale the overscan curve expects.
	VelocityScale float64
	MaxVelocity   float64
	IdleVelocity  float64
	DecayFactor   float64
	EaseFactor    float64
	SmoothingMin  float64
	SmoothingMax  float64

	PrefetchThreshold int
	PrefetchDebounce  time.Duration
}

// DefaultOptions returns pixel-scale defaults.
func DefaultOptions() Options {
	return Options{
		DefaultHeight:     120,
		ExpandedHeight:    600,
		LoadingHeight:     200,
		MinHeight:         1,
		MaxHeight:         math.MaxInt32,
		JitterThreshold:   5,
		OverscanBaseline:  8,
		OverscanMin:       5,
		OverscanMax:       20,
		FrameInterval:     16 * time.Millisecond,
		ScrollFlushFrames: 2,
		QuietInterval:     200 * time.Millisecond,
		VelocityScale:     1,
		MaxVelocity:       8,
		IdleVelocity:      0.05,
		DecayFactor:       0.85,
		EaseFactor:        0.25,
		SmoothingMin:      0.1,
		SmoothingMax:      0.6,
		PrefetchThreshold: 5,
		PrefetchDebounce:  50 * time.Millisecond,
	}
}

// normalize fills zero values from the defaults and repairs inverted bounds.
func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.DefaultHeight <= 0 {
		o.DefaultHeight = d.DefaultHeight
	}
	if o.ExpandedHeight <= 0 {
		o.ExpandedHeight = d.ExpandedHeight
	}
	if o.LoadingHeight <= 0 {
		o.LoadingHeight = d.LoadingHeight
	}
	if o.MinHeight <= 0 {
		o.MinHeight = d.MinHeight
	}
	if o.MaxHeight <= 0 || o.MaxHeight > math.MaxInt32 {
		o.MaxHeight = d.MaxHeight
	}
	if o.MaxHeight < o.MinHeight {
		o.MaxHeight = o.MinHeight
	}
	if o.JitterThreshold < 0 {
		o.JitterThreshold = 0
	}
	if o.OverscanMin <= 0 {
		o.OverscanMin = d.OverscanMin
	}
	if o.OverscanMax <= 0 {
		o.OverscanMax = d.OverscanMax
	}
	if o.OverscanMax < o.OverscanMin {
		o.OverscanMin, o.OverscanMax = o.OverscanMax, o.OverscanMin
	}
	if o.OverscanBaseline <= 0 {
		o.OverscanBaseline = d.OverscanBaseline
	}
	o.OverscanBaseline = clampInt(o.OverscanBaseline, o.OverscanMin, o.OverscanMax)
	if o.FrameInterval <= 0 {
		o.FrameInterval = d.FrameInterval
	}
	if o.ScrollFlushFrames <= 0 {
		o.ScrollFlushFrames = d.ScrollFlushFrames
	}
	if o.QuietInterval <= 0 {
		o.QuietInterval = d.QuietInterval
	}
	if o.VelocityScale <= 0 {
		o.VelocityScale = d.VelocityScale
	}
	if o.MaxVelocity <= 0 {
		o.MaxVelocity = d.MaxVelocity
	}
	if o.IdleVelocity <= 0 {
		o.IdleVelocity = d.IdleVelocity
	}
	if o.DecayFactor <= 0 || o.DecayFactor >= 1 {
		o.DecayFactor = d.DecayFactor
	}
	if o.EaseFactor <= 0 || o.EaseFactor > 1 {
		o.EaseFactor = d.EaseFactor
	}
	if o.SmoothingMin <= 0 || o.SmoothingMin > 1 {
		o.SmoothingMin = d.SmoothingMin
	}
	if o.SmoothingMax <= 0 || o.SmoothingMax > 1 {
		o.SmoothingMax = d.SmoothingMax
	}
	if o.SmoothingMax < o.SmoothingMin {
		o.SmoothingMin, o.SmoothingMax = o.SmoothingMax, o.SmoothingMin
	}
	if o.PrefetchThreshold < 0 {
		o.PrefetchThreshold = 0
	}
	if o.PrefetchDebounce < 0 {
		o.PrefetchDebounce = 0
	}
	return o
}

func clampInt(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func clampFloat(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
