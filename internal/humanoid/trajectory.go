package humanoid

import (
	"math"
	"time"
)

// targetWidth is the W term of Fitts's law. Grid cells are large, so the
// pointer only has to land near the center.
const targetWidth = 30.0

// computeEaseInOutCubic provides a smooth acceleration and deceleration profile for movement.
func computeEaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// movementDuration applies Fitts's law, MT = A + B*log2(1 + D/W), with a
// +/-15% jitter drawn from jitter in [0,1).
func movementDuration(a, b, distance, jitter float64) time.Duration {
	id := math.Log2(1.0 + distance/targetWidth)
	mt := a + b*id
	mt += mt * (jitter*0.3 - 0.15)
	if mt < 0 {
		mt = 0
	}
	return time.Duration(mt * float64(time.Millisecond))
}

// bezierPath samples a cubic Bezier curve from start to end with numSteps
// points. The control points sit at one and two thirds of the way, pushed
// sideways by bend (a signed fraction of the distance). Sample times are
// eased so the pointer accelerates and then settles. The last point is
// always exactly end.
func bezierPath(start, end Vector2D, bend float64, numSteps int) []Vector2D {
	mainVec := end.Sub(start)
	dist := mainVec.Mag()
	if dist < 1.0 || numSteps <= 1 {
		return []Vector2D{end}
	}

	normal := mainVec.Normalize().Perp().Mul(dist * bend)
	p0, p3 := start, end
	p1 := start.Add(mainVec.Mul(1.0 / 3.0)).Add(normal)
	p2 := start.Add(mainVec.Mul(2.0 / 3.0)).Add(normal.Mul(0.5))

	path := make([]Vector2D, numSteps)
	for i := 0; i < numSteps; i++ {
		t := computeEaseInOutCubic(float64(i) / float64(numSteps-1))
		omt := 1.0 - t
		omt2 := omt * omt
		t2 := t * t
		path[i] = p0.Mul(omt2 * omt).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t2 * t))
	}
	path[numSteps-1] = end
	return path
}
