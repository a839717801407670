package playback

import "time"

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithScheduler replaces the runtime scheduler, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithObserver registers fn to receive a snapshot after every published
// change. fn runs while the controller lock is held: it must not block and
// must not call back into the controller.
func WithObserver(fn Observer) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithStepBounds sets the clamp range for step durations. Invalid ranges
// are ignored.
func WithStepBounds(minStep, maxStep time.Duration) Option {
	return func(c *Controller) {
		if minStep > 0 && maxStep >= minStep {
			c.minStep = minStep
			c.maxStep = maxStep
		}
	}
}

// WithStepDuration sets the initial step duration. It is clamped to the
// configured bounds.
func WithStepDuration(d time.Duration) Option {
	return func(c *Controller) {
		c.step = d
	}
}
