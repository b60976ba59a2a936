// Package viewport computes the scale, translation and rotation that map
// image coordinates to window coordinates.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"pcb-annotator/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMinScale    = 0.5
	DefaultMaxScale    = 10.0
	DefaultZoomStep    = 1.25
	DefaultFitCoverage = 0.9
)

// ErrDegenerateSize is returned when the image or window has no area.
var ErrDegenerateSize = errors.New("image and window sizes must be positive")

// Limits configures the viewport behavior.
type Limits struct {
	MinScale    float64
	MaxScale    float64
	ZoomStep    float64 // zoom-in factor; zoom-out uses its reciprocal
	FitCoverage float64 // fraction of the window the fitted image covers
}

// DefaultLimits returns the standard limits: 0.5x-10x, 1.25 zoom step, 90% fit.
func DefaultLimits() Limits {
	return Limits{
		MinScale:    DefaultMinScale,
		MaxScale:    DefaultMaxScale,
		ZoomStep:    DefaultZoomStep,
		FitCoverage: DefaultFitCoverage,
	}
}

// Transform is the image-to-window mapping. Rotation is in degrees around
// the image center and is applied before scale and translation.
type Transform struct {
	Scale    float64
	TX, TY   float64
	Rotation float64
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{Scale: 1}

// Fit returns the transform that centers an image in the window at the
// given coverage: scale = coverage * min(winW/imageW, winH/imageH).
func Fit(imageW, imageH, winW, winH, coverage float64) (Transform, error) {
	if imageW <= 0 || imageH <= 0 || winW <= 0 || winH <= 0 {
		return Identity, ErrDegenerateSize
	}
	scale := coverage * math.Min(winW/imageW, winH/imageH)
	return Transform{
		Scale: scale,
		TX:    (winW - imageW*scale) / 2,
		TY:    (winH - imageH*scale) / 2,
	}, nil
}

// Affine returns the forward image-to-window matrix for an image of the
// given size.
func (t Transform) Affine(imageW, imageH float64) geometry.AffineTransform {
	rot := geometry.RotationAbout(t.Rotation*math.Pi/180, geometry.Point2D{X: imageW / 2, Y: imageH / 2})
	return geometry.Translation(t.TX, t.TY).
		Compose(geometry.Scale(t.Scale, t.Scale)).
		Compose(rot)
}

// Viewport holds the current transform and the sizes it applies to.
// It is not safe for concurrent use.
type Viewport struct {
	limits         Limits
	imageW, imageH float64
	winW, winH     float64
	t              Transform
}

// New creates a viewport with the given limits and an identity transform.
func New(limits Limits) *Viewport {
	return &Viewport{limits: limits, t: Identity}
}

// Limits returns the configured limits.
func (v *Viewport) Limits() Limits {
	return v.limits
}

// Transform returns the current transform.
func (v *Viewport) Transform() Transform {
	return v.t
}

// SetTransform replaces the transform, clamping its scale.
func (v *Viewport) SetTransform(t Transform) {
	t.Scale = v.clamp(t.Scale)
	v.t = t
}

// SetImageSize records the pixel size of the displayed image.
func (v *Viewport) SetImageSize(w, h int) {
	v.imageW, v.imageH = float64(w), float64(h)
}

// ImageSize returns the recorded image size.
func (v *Viewport) ImageSize() (w, h float64) {
	return v.imageW, v.imageH
}

// SetWindowSize records the window size. The transform is left unchanged.
func (v *Viewport) SetWindowSize(w, h float64) {
	v.winW, v.winH = w, h
}

// WindowSize returns the recorded window size.
func (v *Viewport) WindowSize() (w, h float64) {
	return v.winW, v.winH
}

// Reset restores the fit-to-window transform.
func (v *Viewport) Reset() error {
	t, err := Fit(v.imageW, v.imageH, v.winW, v.winH, v.limits.FitCoverage)
	if err != nil {
		return fmt.Errorf("fit %gx%g image in %gx%g window: %w", v.imageW, v.imageH, v.winW, v.winH, err)
	}
	// The fitted scale is not clamped, so tiny windows still show the whole image.
	v.t = t
	return nil
}

// ZoomIn zooms by the zoom step around the window center.
func (v *Viewport) ZoomIn() {
	v.ZoomAt(v.limits.ZoomStep, v.winW/2, v.winH/2)
}

// ZoomOut zooms by the reciprocal zoom step around the window center.
func (v *Viewport) ZoomOut() {
	v.ZoomAt(1/v.limits.ZoomStep, v.winW/2, v.winH/2)
}

// ZoomAt multiplies the scale by factor, keeping the image point under the
// window position (px, py) fixed. The result is clamped to the scale limits.
func (v *Viewport) ZoomAt(factor, px, py float64) {
	if factor <= 0 || v.t.Scale <= 0 {
		return
	}
	next := v.clamp(v.t.Scale * factor)
	f := next / v.t.Scale
	v.t.TX = px - f*(px-v.t.TX)
	v.t.TY = py - f*(py-v.t.TY)
	v.t.Scale = next
}

// Pan moves the translation by (dx, dy) window pixels.
func (v *Viewport) Pan(dx, dy float64) {
	v.t.TX += dx
	v.t.TY += dy
}

// RotateLeft snaps the rotation to the previous multiple of 45 degrees.
func (v *Viewport) RotateLeft() {
	v.t.Rotation = SnapRotation(v.t.Rotation, Left)
}

// RotateRight snaps the rotation to the next multiple of 45 degrees.
func (v *Viewport) RotateRight() {
	v.t.Rotation = SnapRotation(v.t.Rotation, Right)
}

// Affine returns the forward image-to-window matrix.
func (v *Viewport) Affine() geometry.AffineTransform {
	return v.t.Affine(v.imageW, v.imageH)
}

// ImageToScreen maps an image point to window coordinates.
func (v *Viewport) ImageToScreen(p geometry.Point2D) geometry.Point2D {
	return v.Affine().Apply(p)
}

// ScreenToImage maps a window point back to image coordinates.
func (v *Viewport) ScreenToImage(p geometry.Point2D) (geometry.Point2D, error) {
	a := v.Affine()
	m := mat.NewDense(3, 3, []float64{
		a.A, a.B, a.TX,
		a.C, a.D, a.TY,
		0, 0, 1,
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return geometry.Point2D{}, fmt.Errorf("invert viewport transform: %w", err)
		}
	}
	var out mat.VecDense
	out.MulVec(&inv, mat.NewVecDense(3, []float64{p.X, p.Y, 1}))
	return geometry.Point2D{X: out.AtVec(0), Y: out.AtVec(1)}, nil
}

func (v *Viewport) clamp(scale float64) float64 {
	return math.Max(v.limits.MinScale, math.Min(v.limits.MaxScale, scale))
}
