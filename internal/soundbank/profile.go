// SPDX-License-Identifier: EPL-2.0

package soundbank

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

const (
	// Longest window fed to the FFT, in frames.
	analysisWindow = 1 << 15

	// Normalisation never pushes the peak past this level.
	peakCeiling = 0.99
)

// Analyze measures peak and RMS level of interleaved pcm and the dominant
// frequency of its mono downmix.
func Analyze(pcm []float32, channels, sampleRate int) Profile {
	if len(pcm) == 0 || channels < 1 {
		return Profile{Gain: 1}
	}

	wide := make([]float64, len(pcm))
	for i, v := range pcm {
		wide[i] = float64(v)
	}

	return Profile{
		Peak:       math.Max(math.Abs(floats.Max(wide)), math.Abs(floats.Min(wide))),
		RMS:        floats.Norm(wide, 2) / math.Sqrt(float64(len(wide))),
		DominantHz: dominantFrequency(wide, channels, sampleRate),
		Gain:       1,
	}
}

func dominantFrequency(wide []float64, channels, sampleRate int) float64 {
	frames := len(wide) / channels

	n := 1
	for n*2 <= min(frames, analysisWindow) {
		n *= 2
	}
	if n < 4 {
		return 0
	}

	mono := make([]float64, n)
	for i := range mono {
		mono[i] = floats.Sum(wide[i*channels:(i+1)*channels]) / float64(channels)
	}

	spectrum := fft.FFTReal(mono)

	// Bin 0 is the DC offset.
	best, bestPower := 0, 0.0
	for i := 1; i < n/2; i++ {
		power := cmplx.Abs(spectrum[i])
		if power > bestPower {
			best, bestPower = i, power
		}
	}

	return float64(best) * float64(sampleRate) / float64(n)
}

// Normalize scales pcm in place toward targetRMS and returns the updated
// profile. The gain is limited so the peak stays below full scale.
func Normalize(pcm []float32, p Profile, targetRMS float64) Profile {
	if p.RMS <= 0 || targetRMS <= 0 {
		return p
	}

	gain := targetRMS / p.RMS
	if p.Peak > 0 {
		gain = math.Min(gain, peakCeiling/p.Peak)
	}

	g := float32(gain)
	for i := range pcm {
		pcm[i] *= g
	}

	p.Peak *= gain
	p.RMS *= gain
	p.Gain *= gain

	return p
}
