package audio

import (
	"math"
	"time"
)

// trimLeading drops the first dur worth of samples at the given rate.
// Capture streams click for a few ms right after open; trimming keeps
// the transient out of the normalization peak.
func trimLeading(x []float32, rate uint32, dur time.Duration) []float32 {
	n := int(float64(rate) * dur.Seconds())
	if n >= len(x) {
		return x
	}
	return x[n:]
}

// normalize scales samples in place so the peak magnitude is 1.0.
// Silence is returned unchanged.
func normalize(x []float32) []float32 {
	var peak float32
	for _, v := range x {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return x
	}
	inv := 1 / peak
	for i := range x {
		x[i] *= inv
	}
	return x
}

// zeroCrossings controls the half-width of the resampling filter, in
// zero crossings of the sinc per polyphase branch.
const zeroCrossings = 10

// resamplePoly converts x from one sample rate to another using an exact
// rational ratio (to/from reduced by GCD) and a windowed-sinc polyphase
// filter. Equal rates return x unchanged.
func resamplePoly(x []float32, from, to uint32) []float32 {
	if from == to || len(x) == 0 {
		return x
	}

	g := gcd(int(from), int(to))
	up := int(to) / g
	down := int(from) / g

	// Anti-aliasing lowpass at the upsampled rate. Cutoff is half the
	// narrower of the two rates, which works out to 1/(2*max(up,down))
	// cycles per upsampled sample.
	m := up
	if down > m {
		m = down
	}
	halfLen := zeroCrossings * m
	h := make([]float64, 2*halfLen+1)
	for i := range h {
		t := float64(i - halfLen)
		w := 0.5 + 0.5*math.Cos(math.Pi*t/float64(halfLen+1)) // Hann
		h[i] = sinc(t/float64(m)) * w * float64(up) / float64(m)
	}

	outLen := (len(x)*up + down - 1) / down
	y := make([]float32, outLen)
	for i := range y {
		pos := i * down // index into the conceptual upsampled signal
		lo := ceilDiv(pos-halfLen, up)
		if lo < 0 {
			lo = 0
		}
		hi := (pos + halfLen) / up
		if hi >= len(x) {
			hi = len(x) - 1
		}
		var acc float64
		for j := lo; j <= hi; j++ {
			acc += float64(x[j]) * h[pos-j*up+halfLen]
		}
		y[i] = float32(acc)
	}
	return y
}

func sinc(t float64) float64 {
	if t == 0 {
		return 1
	}
	pt := math.Pi * t
	return math.Sin(pt) / pt
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return a / b
	}
	return (a + b - 1) / b
}
