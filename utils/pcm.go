// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a normalized sample to signed 16-bit PCM, clamping
// anything outside [-1, 1].
func Float32ToInt16(x float32) int16 {
	switch {
	case x > 1:
		return 32767
	case x < -1:
		return -32767
	case x != x: // NaN
		return 0
	}

	return int16(x * 32767)
}

// Int16ToFloat32 is the inverse of Float32ToInt16 for PCM read back from disk
// or a device.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 normalizes a signed integer sample of the given bit depth.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(v) / 2147483648.0
	default:
		return float32(v) / 32768.0
	}
}
