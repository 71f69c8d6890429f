package engine

import "time"

// DefaultFrameInterval is the post-present sleep of SleepPacer.
const DefaultFrameInterval = 16 * time.Millisecond

// Pacer is called once after every presented frame, before the driver returns to Idle.
type Pacer interface {
	AfterPresent()
}

// SleepPacer caps the frame rate with a fixed sleep after each present.
// It does not account for the time the frame took, so the real rate is below 1/Interval.
type SleepPacer struct {
	Interval time.Duration
}

func (p SleepPacer) AfterPresent() {
	if p.Interval > 0 {
		time.Sleep(p.Interval)
	}
}

// PresentPacer leaves pacing to the surface present mode (Fifo blocks in acquire
// until a swap chain image is free), or to a host loop that already ticks at a fixed rate.
type PresentPacer struct{}

func (PresentPacer) AfterPresent() {}

// NewPacer returns the pacer named by mode: "sleep" or "present".
func NewPacer(mode string, interval time.Duration) Pacer {
	if mode == "present" {
		return PresentPacer{}
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return SleepPacer{Interval: interval}
}
