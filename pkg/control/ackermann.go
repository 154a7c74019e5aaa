package control

import (
	"math"

	"github.com/evshary/go-carla-bridge/pkg/sim"
)

const gravity = 9.81

// Gains holds the tunable parameters of the Ackermann controller.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64

	// MaxAccel and MaxDecel map an acceleration demand (m/s²) onto the
	// normalized throttle/brake range.
	MaxAccel float64
	MaxDecel float64

	// FullStopBrake is applied when both target and measured speed are
	// below StopThreshold, to hold the vehicle against creep.
	FullStopBrake float64
	StopThreshold float64

	// IntegralLimit bounds the accumulated speed error (anti-windup).
	IntegralLimit float64
}

// DefaultGains returns gains that behave reasonably for a passenger car.
func DefaultGains() Gains {
	return Gains{
		Kp:            0.30,
		Ki:            0.05,
		Kd:            0.01,
		MaxAccel:      3.0,
		MaxDecel:      6.0,
		FullStopBrake: 0.6,
		StopThreshold: 0.1,
		IntegralLimit: 10.0,
	}
}

// Ackermann is a speed/steering feedback controller. Steering is a direct
// normalization against the vehicle's maximum wheel angle; the
// longitudinal path is a PID on speed error with acceleration feedforward
// and gravity compensation for road pitch.
type Ackermann struct {
	gains       Gains
	maxSteerDeg float64

	target TargetRequest

	integral float64
	prevErr  float64
	first    bool
}

// NewAckermann builds a controller from the vehicle's physical parameters.
func NewAckermann(physics sim.VehiclePhysics) *Ackermann {
	return NewAckermannWithGains(physics, DefaultGains())
}

// NewAckermannWithGains builds a controller with explicit gains.
func NewAckermannWithGains(physics sim.VehiclePhysics, gains Gains) *Ackermann {
	return &Ackermann{
		gains:       gains,
		maxSteerDeg: physics.MaxSteerAngle(),
		first:       true,
	}
}

// SetTarget sets the motion request used by subsequent Steps.
func (c *Ackermann) SetTarget(target TargetRequest) {
	c.target = target
}

// Step advances the controller by elapsedSec.
func (c *Ackermann) Step(elapsedSec, currentSpeed, pitchRad float64) (Output, State) {
	steer := clamp(c.target.SteeringAngle/c.maxSteerDeg, -1, 1)
	reverse := c.target.Speed < 0
	targetSpeed := math.Abs(c.target.Speed)

	// Hold the vehicle when stopped with a zero target, instead of
	// letting the PID chatter around creep speed.
	if targetSpeed < c.gains.StopThreshold && currentSpeed < c.gains.StopThreshold {
		c.integral = 0
		c.prevErr = 0
		c.first = true
		return Output{
			Brake:   c.gains.FullStopBrake,
			Steer:   steer,
			Reverse: reverse,
		}, State{}
	}

	err := targetSpeed - currentSpeed

	var derivative float64
	if c.first {
		c.first = false
	} else if elapsedSec > 0 {
		c.integral = clamp(c.integral+err*elapsedSec, -c.gains.IntegralLimit, c.gains.IntegralLimit)
		derivative = (err - c.prevErr) / elapsedSec
	}
	c.prevErr = err

	// Acceleration demand: PID correction, requested feedforward, and
	// the gravity component along the road surface.
	demand := c.gains.Kp*err + c.gains.Ki*c.integral + c.gains.Kd*derivative
	demand += c.target.Accel
	demand += gravity * math.Sin(pitchRad)

	out := Output{Steer: steer, Reverse: reverse}
	if demand >= 0 {
		out.Throttle = clamp(demand/c.gains.MaxAccel, 0, 1)
	} else {
		out.Brake = clamp(-demand/c.gains.MaxDecel, 0, 1)
	}

	return out, State{
		SpeedError:  err,
		Integral:    c.integral,
		AccelDemand: demand,
	}
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

var _ Controller = (*Ackermann)(nil)
