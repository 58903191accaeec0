package vlist

import "math"

// overscanController eases the overscan margin toward a velocity-derived
// target. The fractional value is kept so easing converges smoothly; callers
// see the rounded count.
type overscanController struct {
	opts  Options
	value float64
}

func newOverscanController(opts Options) *overscanController {
	return &overscanController{opts: opts, value: float64(opts.OverscanBaseline)}
}

// target maps a velocity onto baseline * (1 + ln(1 + v)), within bounds.
func (c *overscanController) target(velocity float64) float64 {
	v := clampFloat(velocity, 0, c.opts.MaxVelocity)
	t := float64(c.opts.OverscanBaseline) * (1 + math.Log1p(v))
	return clampFloat(t, float64(c.opts.OverscanMin), float64(c.opts.OverscanMax))
}

// step moves a fixed fraction of the remaining distance toward target.
func (c *overscanController) step(target float64) {
	c.value += c.opts.EaseFactor * (target - c.value)
	c.value = clampFloat(c.value, float64(c.opts.OverscanMin), float64(c.opts.OverscanMax))
}

func (c *overscanController) settled() bool {
	return math.Abs(c.value-float64(c.opts.OverscanBaseline)) < 0.5
}

func (c *overscanController) reset() {
	c.value = float64(c.opts.OverscanBaseline)
}

// count is the overscan the window calculator uses.
func (c *overscanController) count() int {
	return clampInt(int(math.Round(c.value)), c.opts.OverscanMin, c.opts.OverscanMax)
}
