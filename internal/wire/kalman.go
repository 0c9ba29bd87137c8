package wire

import "time"

// RTTFilter is a scalar Kalman filter estimating one peer's round-trip
// time from noisy ACK-latency samples, per spec.md §6's per-peer RTT
// estimator. Grounded on original_source/src/network/NetworkController.cpp's
// reliability filter, reimplemented as an explicit struct rather than
// ambient per-connection state.
type RTTFilter struct {
	processNoise     float64
	measurementNoise float64

	mean float64 // seconds
	vari float64

	initialized bool
}

// DefaultProcessNoise and DefaultMeasurementNoise are the constants
// spec.md §6 names for the default RTT estimator.
const (
	DefaultProcessNoise     = 1e-6
	DefaultMeasurementNoise = 1e-1
	DefaultInitialMean      = 1.0 // seconds
)

// NewRTTFilter constructs a filter seeded at DefaultInitialMean with an
// initial variance of 1.0, ready to absorb its first sample.
func NewRTTFilter() *RTTFilter {
	return &RTTFilter{
		processNoise:     DefaultProcessNoise,
		measurementNoise: DefaultMeasurementNoise,
		mean:             DefaultInitialMean,
		vari:             1.0,
	}
}

// Observe folds one measured round-trip sample into the estimate and
// returns the updated mean.
func (f *RTTFilter) Observe(sample time.Duration) time.Duration {
	z := sample.Seconds()

	if !f.initialized {
		f.mean = z
		f.initialized = true
		return sample
	}

	// Predict.
	predictedVar := f.vari + f.processNoise

	// Update.
	gain := predictedVar / (predictedVar + f.measurementNoise)
	f.mean = f.mean + gain*(z-f.mean)
	f.vari = (1 - gain) * predictedVar

	return time.Duration(f.mean * float64(time.Second))
}

// Estimate returns the current RTT estimate without folding in a new
// sample.
func (f *RTTFilter) Estimate() time.Duration {
	return time.Duration(f.mean * float64(time.Second))
}
