// SPDX-License-Identifier: EPL-2.0

package utils

// Smoothstep returns 3t^2 - 2t^3 for t clamped to [0,1]. It is used as the
// gain curve of short declick fades.
func Smoothstep(t float32) float32 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MapRange linearly maps v from [inLo, inHi] onto [outLo, outHi] and clamps the
// result to the output range. A degenerate input range maps to outLo.
func MapRange(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi <= inLo {
		return outLo
	}
	t := Clamp((v-inLo)/(inHi-inLo), 0, 1)
	return outLo + t*(outHi-outLo)
}

// CubicInterpolate evaluates the Catmull-Rom segment between y1 and y2 at
// x in [0,1]. y0 and y3 are the neighbouring samples. It is the per-sample
// kernel of resampling and pitch shifting.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	b := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c := 0.5 * (y2 - y0)

	return ((a*x+b)*x+c)*x + y1
}
