package tracing

import (
	"testing"

	"pcb-annotator/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lifecycle(t *testing.T) {
	var s Session
	assert.Equal(t, Inactive, s.State())

	_, err := s.Add(1, 1)
	assert.ErrorIs(t, err, ErrNotCapturing)

	s.Begin()
	assert.True(t, s.Active())

	n, err := s.Add(435.4, 819.6)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, _ = s.Add(625, 820)
	n, _ = s.Add(622.5, 424.49)
	assert.Equal(t, 3, n)

	pts, err := s.Complete()
	require.NoError(t, err)
	assert.Equal(t, []geometry.PointInt{{X: 435, Y: 820}, {X: 625, Y: 820}, {X: 623, Y: 424}}, pts)
	assert.False(t, s.Active())
	assert.Zero(t, s.Len())
}

func TestSession_CompleteTooFew(t *testing.T) {
	var s Session
	s.Begin()
	_, _ = s.Add(0, 0)
	_, _ = s.Add(10, 0)

	pts, err := s.Complete()
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.Nil(t, pts)
	assert.True(t, s.Active(), "session stays active")
	assert.Equal(t, 2, s.Len(), "points are kept")

	_, _ = s.Add(10, 10)
	pts, err = s.Complete()
	require.NoError(t, err)
	assert.Len(t, pts, 3)
}

func TestSession_Cancel(t *testing.T) {
	var s Session
	s.Begin()
	_, _ = s.Add(1, 2)
	s.Cancel()
	assert.False(t, s.Active())
	assert.Empty(t, s.Points())

	_, err := s.Complete()
	assert.ErrorIs(t, err, ErrNotCapturing)

	// Cancelling again is harmless.
	s.Cancel()
	assert.Equal(t, Inactive, s.State())
}

func TestSession_BeginClearsPoints(t *testing.T) {
	var s Session
	s.Begin()
	_, _ = s.Add(1, 2)
	s.Begin()
	assert.Zero(t, s.Len())
}

func TestSession_PointsIsCopy(t *testing.T) {
	var s Session
	s.Begin()
	_, _ = s.Add(1, 2)
	pts := s.Points()
	pts[0].X = 99
	assert.Equal(t, 1, s.Points()[0].X)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "capturing", Capturing.String())
	assert.Equal(t, "State(7)", State(7).String())
}
