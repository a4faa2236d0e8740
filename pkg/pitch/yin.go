// Package pitch estimates the fundamental frequency of a single voice.
package pitch

// DefaultThreshold is the YIN absolute threshold.
const DefaultThreshold = 0.15

// Estimator returns the fundamental frequency of samples in Hz, or 0 when
// no pitch is present.
type Estimator interface {
	Estimate(samples []int16, sampleRate int) float64
}

// YIN implements the YIN estimator (de Cheveigné & Kawahara) with parabolic
// refinement of the period.
type YIN struct {
	Threshold float64
}

// NewYIN returns a YIN estimator. A non-positive threshold selects
// DefaultThreshold.
func NewYIN(threshold float64) *YIN {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &YIN{Threshold: threshold}
}

// Estimate implements Estimator.
func (y *YIN) Estimate(samples []int16, sampleRate int) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s) / 32768
	}
	return y.EstimateFloat(x, sampleRate)
}

// EstimateFloat runs YIN on samples already scaled to [-1, 1].
func (y *YIN) EstimateFloat(x []float64, sampleRate int) float64 {
	half := len(x) / 2
	if half < 3 || sampleRate <= 0 {
		return 0
	}
	threshold := y.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	d := difference(x, half)
	cumulativeMeanNormalize(d)

	tau := -1
	for t := 2; t < half; t++ {
		if d[t] < threshold {
			for t+1 < half && d[t+1] < d[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau < 0 {
		return 0
	}

	rate := float64(sampleRate)
	if tau+1 >= half {
		return rate / float64(tau)
	}
	s0, s1, s2 := d[tau-1], d[tau], d[tau+1]
	denom := s0 - 2*s1 + s2
	if denom == 0 {
		return rate / float64(tau)
	}
	refined := float64(tau) + 0.5*(s0-s2)/denom
	if refined <= 0 || refined < float64(tau-1) || refined > float64(tau+1) {
		return rate / float64(tau)
	}
	return rate / refined
}

// difference computes d(tau) = sum_j (x[j] - x[j+tau])^2 for tau in 1..half-1.
func difference(x []float64, half int) []float64 {
	d := make([]float64, half)
	for tau := 1; tau < half; tau++ {
		sum := 0.0
		for j := 0; j < half; j++ {
			delta := x[j] - x[j+tau]
			sum += delta * delta
		}
		d[tau] = sum
	}
	return d
}

// cumulativeMeanNormalize replaces d(tau) with d(tau)*tau / sum_{k<=tau} d(k).
// d(0) is fixed to 1; a zero running sum leaves d(tau) at 1 so silent input
// never crosses the threshold.
func cumulativeMeanNormalize(d []float64) {
	d[0] = 1
	sum := 0.0
	for tau := 1; tau < len(d); tau++ {
		sum += d[tau]
		if sum == 0 {
			d[tau] = 1
			continue
		}
		d[tau] = d[tau] * float64(tau) / sum
	}
}
