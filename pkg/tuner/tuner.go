package tuner

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/andrepxx/go-dsp-guitar/circular"
	"github.com/andrepxx/go-dsp-guitar/fft"
)

/*
 * Global constants.
 */
const (
	DefaultBufferSize = 8192
	MinFrequency      = 60.0
	MaxFrequency      = 2000.0
)

/*
 * Pitch estimator based on the autocorrelation of the most recent
 * samples. Samples are streamed into a ring buffer and the whole buffer is
 * analyzed at once.
 */
type Autocorrelator struct {
	mutexBuffer      sync.RWMutex
	buffer           circular.Buffer
	sampleRate       uint32
	mutexAnalyze     sync.Mutex
	fourierTransform fft.FourierTransform
	bufCorrelation   []float64
	bufFFT           []complex128
}

/*
 * Find the maximum value in a buffer.
 */
func findMaximum(buf []float64) (float64, int) {
	maxVal := math.Inf(-1)
	maxIdx := int(-1)

	for idx, value := range buf {

		if value > maxVal {
			maxVal = value
			maxIdx = idx
		}

	}

	return maxVal, maxIdx
}

/*
 * Find the first index at which a buffer turns negative, or -1.
 */
func firstNegativeLag(buf []float64) int {

	for idx, value := range buf {

		if value < 0 {
			return idx
		}

	}

	return -1
}

/*
 * Computes the autocorrelation of the buffered samples into bufCorrelation
 * and returns the number of samples analyzed.
 */
func (this *Autocorrelator) correlate() (int, uint32, error) {
	circularBuffer := this.buffer
	n := circularBuffer.Length()
	fftSize64, _ := fft.NextPowerOfTwo(uint64(2 * n))
	fftSize := int(fftSize64)

	/*
	 * Ensure that the work buffers are of correct length.
	 */
	if len(this.bufCorrelation) != fftSize {
		this.bufCorrelation = make([]float64, fftSize)
	}

	if len(this.bufFFT) != fftSize {
		this.bufFFT = make([]complex128, fftSize)
	}

	bufCorrelation := this.bufCorrelation
	bufFFT := this.bufFFT
	this.mutexBuffer.RLock()
	sampleRate := this.sampleRate
	err := circularBuffer.Retrieve(bufCorrelation[0:n])
	this.mutexBuffer.RUnlock()

	if err != nil {
		return 0, 0, fmt.Errorf("retrieve samples: %s", err.Error())
	}

	fft.ZeroFloat(bufCorrelation[n:fftSize])
	ft := this.fourierTransform
	err = ft.RealFourier(bufCorrelation, bufFFT, fft.SCALING_DEFAULT)

	if err != nil {
		return 0, 0, fmt.Errorf("forward fft: %s", err.Error())
	}

	/*
	 * Multiply each element of the spectrum with its complex conjugate.
	 */
	for i, elem := range bufFFT {
		bufFFT[i] = elem * cmplx.Conj(elem)
	}

	err = ft.RealInverseFourier(bufFFT, bufCorrelation, fft.SCALING_DEFAULT)

	if err != nil {
		return 0, 0, fmt.Errorf("inverse fft: %s", err.Error())
	}

	return n, sampleRate, nil
}

/*
 * Analyze the buffered stream and return its fundamental frequency, or 0
 * when no periodicity is found between MinFrequency and MaxFrequency.
 */
func (this *Autocorrelator) Analyze() (float64, error) {
	this.mutexAnalyze.Lock()
	defer this.mutexAnalyze.Unlock()
	n, sampleRate, err := this.correlate()

	if err != nil {
		return 0, err
	}

	if sampleRate == 0 || n < 3 {
		return 0, nil
	}

	bufCorrelation := this.bufCorrelation
	sampleRateFloat := float64(sampleRate)
	lowIdx := int((sampleRateFloat / MaxFrequency) + 0.5)
	highIdx := int((sampleRateFloat / MinFrequency) + 0.5)

	/*
	 * Only lags shorter than the analyzed block carry information.
	 */
	if lowIdx < 1 {
		lowIdx = 1
	}

	if highIdx > n-1 {
		highIdx = n - 1
	}

	/*
	 * Skip the lobe around lag zero. The period peak can only follow the
	 * first lag at which the signal is anti-correlated with itself.
	 */
	firstNegative := firstNegativeLag(bufCorrelation[0:highIdx])

	if firstNegative < 0 {
		return 0, nil
	}

	if firstNegative > lowIdx {
		lowIdx = firstNegative
	}

	if highIdx <= lowIdx {
		return 0, nil
	}

	maxVal, maxIdx := findMaximum(bufCorrelation[lowIdx:highIdx])

	/*
	 * Silence correlates to zero everywhere.
	 */
	if maxIdx < 0 || maxVal <= 0 {
		return 0, nil
	}

	idx := lowIdx + maxIdx
	valueLeft := bufCorrelation[idx-1]
	valueRight := bufCorrelation[idx+1]
	denominator := 2.0*maxVal - (valueRight + valueLeft)
	shiftEstimation := 0.0

	if denominator != 0 {
		shiftEstimation = 0.5 * (valueRight - valueLeft) / denominator
	}

	/*
	 * Limit shift estimation to plus/minus half a sample.
	 */
	if shiftEstimation < -0.5 {
		shiftEstimation = -0.5
	} else if shiftEstimation > 0.5 {
		shiftEstimation = 0.5
	}

	return sampleRateFloat / (float64(idx) + shiftEstimation), nil
}

/*
 * Stream samples for later analysis.
 */
func (this *Autocorrelator) Process(samples []float64, sampleRate uint32) {
	this.mutexBuffer.Lock()
	this.buffer.Enqueue(samples...)
	this.sampleRate = sampleRate
	this.mutexBuffer.Unlock()
}

/*
 * Streams a chunk of 16-bit samples and analyzes the buffer. Errors are
 * reported as no pitch.
 */
func (this *Autocorrelator) Estimate(samples []int16, sampleRate int) float64 {

	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}

	x := make([]float64, len(samples))

	for i, s := range samples {
		x[i] = float64(s) / 32768
	}

	this.Process(x, uint32(sampleRate))
	freq, err := this.Analyze()

	if err != nil {
		return 0
	}

	return freq
}

/*
 * Creates an autocorrelation pitch estimator analyzing the last size
 * samples. A non-positive size selects DefaultBufferSize.
 */
func NewAutocorrelator(size int) *Autocorrelator {

	if size <= 0 {
		size = DefaultBufferSize
	}

	return &Autocorrelator{
		buffer:           circular.CreateBuffer(size),
		fourierTransform: fft.CreateFourierTransform(),
	}
}
