// Package tracing implements vertex-by-vertex polygon capture.
package tracing

import (
	"errors"
	"fmt"

	"pcb-annotator/pkg/geometry"
)

// MinPoints is the number of vertices a completed trace needs.
const MinPoints = 3

var (
	// ErrTooFewPoints is returned by Complete when fewer than MinPoints
	// vertices were captured. The session stays active.
	ErrTooFewPoints = errors.New("a trace needs at least 3 points")

	// ErrNotCapturing is returned when a capture operation runs on an
	// inactive session.
	ErrNotCapturing = errors.New("no trace in progress")
)

// State is the capture state of a Session.
type State int

const (
	Inactive State = iota
	Capturing
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Capturing:
		return "capturing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session captures polygon vertices in image coordinates.
// The zero value is an inactive session.
type Session struct {
	state  State
	points []geometry.PointInt
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Active reports whether vertices are being captured.
func (s *Session) Active() bool {
	return s.state == Capturing
}

// Begin starts a new capture, discarding any previous vertices.
func (s *Session) Begin() {
	s.state = Capturing
	s.points = s.points[:0]
}

// Add rounds (x, y) to integers and appends it. It returns the number of
// captured vertices.
func (s *Session) Add(x, y float64) (int, error) {
	if s.state != Capturing {
		return 0, ErrNotCapturing
	}
	s.points = append(s.points, geometry.NewPoint2D(x, y).Round())
	return len(s.points), nil
}

// Points returns a copy of the captured vertices.
func (s *Session) Points() []geometry.PointInt {
	out := make([]geometry.PointInt, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of captured vertices.
func (s *Session) Len() int {
	return len(s.points)
}

// Complete ends the capture and returns the vertices. With fewer than
// MinPoints vertices it returns ErrTooFewPoints and keeps capturing.
func (s *Session) Complete() ([]geometry.PointInt, error) {
	if s.state != Capturing {
		return nil, ErrNotCapturing
	}
	if len(s.points) < MinPoints {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewPoints, len(s.points))
	}
	pts := s.Points()
	s.reset()
	return pts, nil
}

// Cancel ends the capture and discards the vertices. Cancelling an
// inactive session is a no-op.
func (s *Session) Cancel() {
	s.reset()
}

func (s *Session) reset() {
	s.state = Inactive
	s.points = nil
}
