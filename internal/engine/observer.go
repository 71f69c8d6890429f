package engine

import (
	"fmt"
	"time"
)

// FrameResult is how a frame cycle ended.
type FrameResult int

const (
	// FramePresented: compute and render submitted, image presented.
	FramePresented FrameResult = iota
	// FrameSkipped: compute submitted, the surface was outdated or timed out.
	FrameSkipped
	// FrameReconfigured: compute submitted, the surface was lost and reconfigured.
	FrameReconfigured
	// FrameFailed: the cycle ended with a fatal error.
	FrameFailed
)

func (r FrameResult) String() string {
	switch r {
	case FramePresented:
		return "presented"
	case FrameSkipped:
		return "skipped"
	case FrameReconfigured:
		return "reconfigured"
	case FrameFailed:
		return "failed"
	}
	return fmt.Sprintf("FrameResult(%d)", int(r))
}

// FrameReport describes one finished frame cycle.
type FrameReport struct {
	Index  uint64
	Delta  time.Duration
	Parity Parity
	Result FrameResult
	Agents int
}

// Observer receives a report at the end of every frame cycle. It is called on
// the driver goroutine and must not block.
type Observer interface {
	ObserveFrame(FrameReport)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(FrameReport)

func (f ObserverFunc) ObserveFrame(r FrameReport) { f(r) }
