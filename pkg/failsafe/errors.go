package failsafe

import "fmt"

// AccelerationError indicates a sample was rejected by the plausibility gate.
type AccelerationError struct {
	// Linear and Angular are the implied accelerations.
	Linear  float64
	Angular float64
}

// Error implements error.
func (e *AccelerationError) Error() string {
	return fmt.Sprintf("implausible acceleration: linear %.3f m/s^2, angular %.3f rad/s^2", e.Linear, e.Angular)
}
