package mcu

import (
	"math"
	"time"
)

// Wheel ramps the motor speed towards the target with a constant acceleration.
type Wheel struct {
	// Accel is in rpm/s, 0 reaches the target immediately.
	Accel  float64
	Target float64
	RPM    float64
}

// Advance moves the wheel by dt and returns the motor revolutions.
func (w *Wheel) Advance(dt time.Duration) float64 {
	secs := dt.Seconds()
	if secs <= 0 {
		return 0
	}
	diff := w.Target - w.RPM
	if w.Accel <= 0 || diff == 0 {
		w.RPM = w.Target
		return w.RPM * secs / 60
	}
	rampSecs := math.Abs(diff) / w.Accel
	if rampSecs >= secs {
		next := w.RPM + math.Copysign(w.Accel, diff)*secs
		revs := (w.RPM + next) / 2 * secs / 60
		w.RPM = next
		return revs
	}
	revs := (w.RPM+w.Target)/2*rampSecs/60 + w.Target*(secs-rampSecs)/60
	w.RPM = w.Target
	return revs
}
