package engine

import "math"

// CubicBezier is a CSS-style timing function with fixed end points (0,0) and (1,1).
type CubicBezier struct {
	X1, Y1, X2, Y2 float64
}

// Ease maps linear progress p in [0,1] to eased progress.
func (b CubicBezier) Ease(p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	}
	return bezier(b.solveX(p), b.Y1, b.Y2)
}

// solveX finds the curve parameter whose x equals p.
func (b CubicBezier) solveX(p float64) float64 {
	t := p
	for i := 0; i < 8; i++ {
		x := bezier(t, b.X1, b.X2) - p
		if math.Abs(x) < 1e-7 {
			return t
		}
		d := bezierSlope(t, b.X1, b.X2)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= x / d
	}

	lo, hi := 0.0, 1.0
	t = p
	for lo < hi {
		x := bezier(t, b.X1, b.X2)
		if math.Abs(x-p) < 1e-7 {
			return t
		}
		if p > x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
		if hi-lo < 1e-9 {
			break
		}
	}
	return t
}

func bezier(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierSlope(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}
