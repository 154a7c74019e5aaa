// Package sim defines the boundary to the vehicle simulator: the Actor
// interface the bridge drives, the value types crossing it, and a
// websocket gateway implementation.
package sim

import "math"

// Vec3 is a 3D vector in the simulator's frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Rotation is an orientation in degrees, using the simulator's convention.
type Rotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// PitchRadians returns the pitch angle in radians.
func (r Rotation) PitchRadians() float64 {
	return r.Pitch * math.Pi / 180
}

// Transform is a location plus orientation.
type Transform struct {
	Location Vec3     `json:"location"`
	Rotation Rotation `json:"rotation"`
}

// WheelLocation identifies a wheel on the vehicle.
type WheelLocation int

const (
	WheelFrontLeft WheelLocation = iota
	WheelFrontRight
	WheelBackLeft
	WheelBackRight
)

// VehicleControl is the low-level actuation command applied to the actor.
// Throttle and Brake are in [0,1], Steer in [-1,1].
type VehicleControl struct {
	Throttle        float32 `json:"throttle"`
	Steer           float32 `json:"steer"`
	Brake           float32 `json:"brake"`
	HandBrake       bool    `json:"hand_brake"`
	Reverse         bool    `json:"reverse"`
	ManualGearShift bool    `json:"manual_gear_shift"`
	Gear            int32   `json:"gear"`
}

// WheelPhysics holds the physical parameters of one wheel.
// MaxSteerAngle is in degrees.
type WheelPhysics struct {
	MaxSteerAngle float64 `json:"max_steer_angle"`
	Radius        float64 `json:"radius"`
}

// VehiclePhysics holds the actor's physical parameters, queried once at
// bridge construction to parametrize the actuation controller.
type VehiclePhysics struct {
	Mass   float64        `json:"mass"`
	MaxRPM float64        `json:"max_rpm"`
	Wheels []WheelPhysics `json:"wheels"`
}

// MaxSteerAngle returns the largest wheel steer angle in degrees, or a
// conservative default when no wheel data is available.
func (p VehiclePhysics) MaxSteerAngle() float64 {
	angle := 0.0
	for _, w := range p.Wheels {
		if w.MaxSteerAngle > angle {
			angle = w.MaxSteerAngle
		}
	}
	if angle == 0 {
		return 70.0
	}
	return angle
}

// Actor is a simulated vehicle the bridge reads state from and applies
// actuation to. Implementations must be safe for use from a single
// goroutine at a time; the bridge never calls concurrently.
type Actor interface {
	// PhysicsControl returns the vehicle's physical parameters.
	PhysicsControl() (VehiclePhysics, error)

	// Velocity returns the current velocity vector in m/s.
	Velocity() (Vec3, error)

	// WheelSteerAngle returns the current steer angle of the given wheel
	// in degrees.
	WheelSteerAngle(wheel WheelLocation) (float64, error)

	// Transform returns the actor's current location and orientation.
	Transform() (Transform, error)

	// ApplyControl applies an actuation command to the actor.
	ApplyControl(control VehicleControl) error
}
