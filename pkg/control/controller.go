// Package control defines the feedback controller contract that turns a
// target motion request into low-level actuation, and a PID-based
// implementation parametrized by vehicle physics.
package control

// TargetRequest is the desired motion, set before each Step.
// SteeringAngle is in degrees in the actuator frame, Speed in m/s
// (negative for reverse), Accel in m/s².
type TargetRequest struct {
	SteeringAngle float64
	Speed         float64
	Accel         float64
}

// Output is the actuation produced by one Step.
// Throttle and Brake are normalized to [0,1], Steer to [-1,1].
type Output struct {
	Throttle  float64
	Brake     float64
	Steer     float64
	Reverse   bool
	HandBrake bool
}

// State is the controller-internal artifact returned alongside each
// Output. The bridge does not consume it; it exists for diagnostics.
type State struct {
	SpeedError  float64
	Integral    float64
	AccelDemand float64
}

// Controller converts target motion plus measured state into actuation.
// Implementations are constructed once from static vehicle parameters,
// mutated by SetTarget and advanced by Step.
type Controller interface {
	// SetTarget sets the motion request used by subsequent Steps.
	SetTarget(target TargetRequest)

	// Step advances the controller by elapsedSec given the measured
	// longitudinal speed (m/s, magnitude) and road pitch (radians).
	Step(elapsedSec, currentSpeed, pitchRad float64) (Output, State)
}
