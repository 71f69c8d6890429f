package soft

import "fmt"

// Op identifies one recorded device event.
type Op int

const (
	OpWriteBuffer Op = iota
	OpDispatch
	OpDraw
	OpSubmit
	OpConfigure
	OpAcquire
	OpPresent
)

func (o Op) String() string {
	switch o {
	case OpWriteBuffer:
		return "write-buffer"
	case OpDispatch:
		return "dispatch"
	case OpDraw:
		return "draw"
	case OpSubmit:
		return "submit"
	case OpConfigure:
		return "configure"
	case OpAcquire:
		return "acquire"
	case OpPresent:
		return "present"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Command is one entry of the device trace, in the order the queue executed it.
type Command struct {
	Op    Op
	Label string // buffer, bind group or surface label
	// Count is the workgroup count for dispatches, the instance count for draws,
	// the byte count for writes, and the width for configures.
	Count uint32
	// Slot is the label of the agent slot read by a draw's instance buffer.
	Slot string
}

func (c Command) String() string {
	if c.Slot != "" {
		return fmt.Sprintf("%s(%s, %d, slot=%s)", c.Op, c.Label, c.Count, c.Slot)
	}
	return fmt.Sprintf("%s(%s, %d)", c.Op, c.Label, c.Count)
}
