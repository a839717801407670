// Package playback drives timed sign animations.
//
// A Controller is a small state machine:
//
//	idle --submit(known)--> playing(0) --tick--> playing(i+1) ... --tick--> holding --tick--> idle
//
// Entering the last keyframe ends "playing" and moves to "holding": the last
// pose stays up for one more step, then the default pose is restored. Every
// scheduled tick carries the generation it was scheduled in; Submit and
// Close bump the generation so a tick that lost the race with Stop is a no-op.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/okian/signconnect/internal/domain/sign"
)

// Step duration defaults.
const (
	DefaultStepDuration = 1000 * time.Millisecond
	MinStepDuration     = 500 * time.Millisecond
	MaxStepDuration     = 2000 * time.Millisecond
)

// Phase is the controller state.
type Phase string

// Phases.
const (
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhaseHolding Phase = "holding"
)

// Event names the change a snapshot was published for.
type Event string

// Events.
const (
	EventState   Event = "state"   // plain read, nothing changed
	EventStart   Event = "start"   // recognized word, first keyframe shown
	EventUnknown Event = "unknown" // unrecognized word, default pose shown
	EventAdvance Event = "advance" // next keyframe shown
	EventReset   Event = "reset"   // hold elapsed, default pose restored
	EventSpeed   Event = "speed"   // step duration changed
)

// Lookuper resolves a word to its keyframes.
type Lookuper interface {
	Lookup(word string) ([]sign.PoseKeyframe, bool)
}

// Observer receives published snapshots.
type Observer func(Snapshot)

// Snapshot is a read-only copy of the playback state.
type Snapshot struct {
	Word           string            `json:"word"`
	Pose           sign.PoseKeyframe `json:"pose"`
	Phase          Phase             `json:"phase"`
	Playing        bool              `json:"playing"`
	Step           int               `json:"step"`
	Steps          int               `json:"steps"`
	StepDurationMS int64             `json:"step_duration_ms"`
	Seq            uint64            `json:"seq"`
	Event          Event             `json:"event"`
	Interrupted    bool              `json:"interrupted,omitempty"`
}

// Controller owns one playback state. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	dict     Lookuper
	sched    Scheduler
	observer Observer

	minStep time.Duration
	maxStep time.Duration
	step    time.Duration

	word  string
	steps []sign.PoseKeyframe
	index int
	phase Phase
	pose  sign.PoseKeyframe
	seq   uint64

	timer  Timer
	gen    uint64
	closed bool
}

// New creates an idle controller showing the default pose.
func New(dict Lookuper, opts ...Option) *Controller {
	c := &Controller{
		dict:    dict,
		sched:   RuntimeScheduler,
		minStep: MinStepDuration,
		maxStep: MaxStepDuration,
		step:    DefaultStepDuration,
		phase:   PhaseIdle,
		pose:    sign.DefaultPose,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.step = c.clamp(c.step)
	return c
}

// Submit plays the first word of text. Empty input changes nothing. An
// unknown word shows the default pose; it is not an error.
func (c *Controller) Submit(_ context.Context, text string) Snapshot {
	word := sign.FirstToken(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if word == "" || c.closed {
		return c.snapshotLocked(EventState, false)
	}

	interrupted := c.phase != PhaseIdle
	c.cancelLocked()
	c.word = word

	frames, ok := c.dict.Lookup(word)
	if !ok {
		c.steps = nil
		c.index = 0
		c.phase = PhaseIdle
		c.pose = sign.DefaultPose
		return c.publishLocked(EventUnknown, interrupted)
	}

	c.steps = frames
	c.index = 0
	c.phase = PhasePlaying
	return c.showLocked(EventStart, interrupted)
}

// SetStepDuration sets the delay between keyframes in milliseconds and
// returns the clamped value in effect. The running step keeps its timer;
// the new value applies from the next tick.
func (c *Controller) SetStepDuration(ms int) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.clampMillis(ms)
	if d != c.step && !c.closed {
		c.step = d
		c.publishLocked(EventSpeed, false)
	}
	return c.step
}

// StepDuration returns the current step duration.
func (c *Controller) StepDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Pose returns the pose to render. It is never the zero value.
func (c *Controller) Pose() sign.PoseKeyframe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// Playing reports whether keyframes are still being advanced.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhasePlaying
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(EventState, false)
}

// View calls fn with the current state while holding the controller lock,
// so no change is published while fn runs. fn must not call back into the
// controller.
func (c *Controller) View(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.snapshotLocked(EventState, false))
}

// Close cancels any pending tick. After Close returns no callback will
// change the state and Submit is a no-op. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cancelLocked()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return
	}
	c.timer = nil

	switch c.phase {
	case PhasePlaying:
		c.index++
		c.showLocked(EventAdvance, false)
	case PhaseHolding:
		c.steps = nil
		c.index = 0
		c.phase = PhaseIdle
		c.pose = sign.DefaultPose
		c.publishLocked(EventReset, false)
	case PhaseIdle:
	}
}

// showLocked displays steps[index], moves to holding on the last keyframe
// and schedules the next tick.
func (c *Controller) showLocked(ev Event, interrupted bool) Snapshot {
	c.pose = c.steps[c.index]
	if c.index == len(c.steps)-1 {
		c.phase = PhaseHolding
	}
	s := c.publishLocked(ev, interrupted)

	gen := c.gen
	c.timer = c.sched.AfterFunc(c.step, func() { c.tick(gen) })
	return s
}

func (c *Controller) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) publishLocked(ev Event, interrupted bool) Snapshot {
	c.seq++
	s := c.snapshotLocked(ev, interrupted)
	if c.observer != nil {
		c.observer(s)
	}
	return s
}

func (c *Controller) snapshotLocked(ev Event, interrupted bool) Snapshot {
	return Snapshot{
		Word:           c.word,
		Pose:           c.pose,
		Phase:          c.phase,
		Playing:        c.phase == PhasePlaying,
		Step:           c.index,
		Steps:          len(c.steps),
		StepDurationMS: c.step.Milliseconds(),
		Seq:            c.seq,
		Event:          ev,
		Interrupted:    interrupted,
	}
}

// clampMillis bounds ms before converting it, so huge values cannot
// overflow time.Duration and wrap below the minimum.
func (c *Controller) clampMillis(ms int) time.Duration {
	switch {
	case int64(ms) > c.maxStep.Milliseconds():
		return c.maxStep
	case int64(ms) < c.minStep.Milliseconds():
		return c.minStep
	}
	return c.clamp(time.Duration(ms) * time.Millisecond)
}

func (c *Controller) clamp(d time.Duration) time.Duration {
	if d < c.minStep {
		return c.minStep
	}
	if d > c.maxStep {
		return c.maxStep
	}
	return d
}
