package model

import "fmt"

// Rect is a display or window geometry in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Display is one attached physical screen.
type Display struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Bounds Rect   `json:"bounds"`
}

// String returns a compact geometry description for logs.
func (rect Rect) String() string {
	return fmt.Sprintf("(%d, %d) %dx%d", rect.X, rect.Y, rect.Width, rect.Height)
}

// Near reports whether both origins are within tolerance pixels of each other.
func (rect Rect) Near(other Rect, tolerance int) bool {
	return abs(rect.X-other.X) < tolerance && abs(rect.Y-other.Y) < tolerance
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
