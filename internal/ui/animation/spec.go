package animation

// Frame is one state of the eye illustration shown during a break.
type Frame int

const (
	FrameOpen Frame = iota
	FrameClosed
)

func (frame Frame) String() string {
	if frame == FrameClosed {
		return "closed"
	}
	return "open"
}
