package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend(t *testing.T) {
	dst := color.RGBA{R: 0, G: 0, B: 0, A: 255}
	src := color.RGBA{R: 200, G: 100, B: 50, A: 255}

	assert.Equal(t, dst, Blend(dst, src, 0))
	assert.Equal(t, src, Blend(dst, src, 1))
	assert.Equal(t, color.RGBA{R: 100, G: 50, B: 25, A: 255}, Blend(dst, src, 0.5))
}
