package viewport

import "math"

// RotationStep is the snapping increment for rotation, in degrees.
const RotationStep = 45.0

// Direction selects which way SnapRotation turns.
type Direction int

const (
	Left Direction = iota
	Right
)

// SnapRotation returns the next multiple of RotationStep from angle in the
// given direction, normalized to [0, 360). An angle already on a multiple
// moves a full step.
func SnapRotation(angle float64, dir Direction) float64 {
	steps := normalize(angle) / RotationStep
	var next float64
	switch dir {
	case Left:
		next = math.Floor(steps)
		if next == steps {
			next--
		}
	default:
		next = math.Ceil(steps)
		if next == steps {
			next++
		}
	}
	return normalize(next * RotationStep)
}

func normalize(angle float64) float64 {
	return math.Mod(math.Mod(angle, 360)+360, 360)
}
