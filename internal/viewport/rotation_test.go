package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapRotation(t *testing.T) {
	tests := []struct {
		angle float64
		dir   Direction
		want  float64
	}{
		{0, Right, 45},
		{0, Left, 315},
		{45, Right, 90},
		{45, Left, 0},
		{10, Right, 45},
		{10, Left, 0},
		{100, Left, 90},
		{315, Right, 0},
		{-30, Right, 0}, // -30 normalizes to 330
		{720, Left, 315},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnapRotation(tt.angle, tt.dir), "angle=%v dir=%v", tt.angle, tt.dir)
	}
}

func TestViewportRotate(t *testing.T) {
	v := New(DefaultLimits())
	v.RotateRight()
	v.RotateRight()
	assert.Equal(t, 90.0, v.Transform().Rotation)
	v.RotateLeft()
	assert.Equal(t, 45.0, v.Transform().Rotation)
}
