package l5position

import "math"

// KalmanFilter is a 1-D constant-velocity Kalman filter over unwrapped
// progress, with innovation gating. It is the fuller alternative to
// BoundedRateFilter and also smooths accepted measurements.
type KalmanFilter struct {
	ProcessNoise     float64
	MeasurementNoise float64
	GateSigma        float64
	ReacquireAfter   int

	// x = [position, velocity] per frame; P is row-major 2x2.
	x   [2]float64
	P   [4]float64
	has bool

	rejectedRun int
	reacquired  int64
}

// NewKalmanFilter returns a filter with the given noise model.
func NewKalmanFilter(processNoise, measurementNoise, gateSigma float64, reacquireAfter int) *KalmanFilter {
	return &KalmanFilter{
		ProcessNoise:     processNoise,
		MeasurementNoise: measurementNoise,
		GateSigma:        gateSigma,
		ReacquireAfter:   reacquireAfter,
	}
}

// Predict returns the one-frame-ahead position.
func (k *KalmanFilter) Predict() (float64, bool) {
	if !k.has {
		return 0, false
	}
	return Wrap(k.x[0] + k.x[1]), true
}

// Accept implements Filter.
func (k *KalmanFilter) Accept(m float64) (float64, bool) {
	m = Wrap(m)
	if !k.has {
		k.init(m)
		return m, true
	}

	// Predict: F = [1 1; 0 1].
	xp := [2]float64{k.x[0] + k.x[1], k.x[1]}
	P := k.P
	Pp := [4]float64{
		P[0] + P[1] + P[2] + P[3] + k.ProcessNoise,
		P[1] + P[3],
		P[2] + P[3],
		P[3] + k.ProcessNoise,
	}

	// Innovation on the circle, H = [1 0].
	y := CircularDelta(Wrap(xp[0]), m)
	S := Pp[0] + k.MeasurementNoise
	if S <= 0 || math.Abs(y) > k.GateSigma*math.Sqrt(S) {
		k.rejectedRun++
		if k.ReacquireAfter > 0 && k.rejectedRun >= k.ReacquireAfter {
			k.init(m)
			k.reacquired++
			return m, true
		}
		// Coast on the prediction.
		k.x, k.P = xp, Pp
		return Wrap(xp[0]), false
	}
	k.rejectedRun = 0

	K0 := Pp[0] / S
	K1 := Pp[2] / S
	k.x = [2]float64{xp[0] + K0*y, xp[1] + K1*y}
	k.P = [4]float64{
		(1 - K0) * Pp[0],
		(1 - K0) * Pp[1],
		Pp[2] - K1*Pp[0],
		Pp[3] - K1*Pp[1],
	}
	return Wrap(k.x[0]), true
}

func (k *KalmanFilter) init(m float64) {
	k.x = [2]float64{m, 0}
	k.P = [4]float64{k.MeasurementNoise, 0, 0, 1}
	k.has = true
	k.rejectedRun = 0
}

// Reset implements Filter.
func (k *KalmanFilter) Reset() {
	k.x, k.P = [2]float64{}, [4]float64{}
	k.has = false
	k.rejectedRun = 0
}

// Reacquired returns how many times the filter re-initialised after a run
// of gated measurements.
func (k *KalmanFilter) Reacquired() int64 { return k.reacquired }
