// Package autoware defines the JSON message types exchanged with the
// autonomy stack over the bus: the inbound motion command and the
// outbound velocity status report.
package autoware

import (
	"encoding/json"
	"fmt"
)

// TimeStamp is a ROS-style timestamp (seconds + nanoseconds).
type TimeStamp struct {
	Sec  int32  `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

// Header carries message metadata.
// The stamp and frame id are currently always zero/empty.
// TODO: fill in a real timestamp once the simulator clock is plumbed through.
type Header struct {
	Stamp   TimeStamp `json:"stamp"`
	FrameID string    `json:"frame_id"`
}

// LateralCommand is the steering part of a motion command.
// SteeringTireAngle is in radians, positive to the left.
type LateralCommand struct {
	Stamp                    TimeStamp `json:"stamp"`
	SteeringTireAngle        float64   `json:"steering_tire_angle"`
	SteeringTireRotationRate float64   `json:"steering_tire_rotation_rate"`
}

// LongitudinalCommand is the speed part of a motion command.
// Speed is in m/s, Acceleration in m/s², Jerk in m/s³.
type LongitudinalCommand struct {
	Stamp        TimeStamp `json:"stamp"`
	Speed        float64   `json:"speed"`
	Acceleration float64   `json:"acceleration"`
	Jerk         float64   `json:"jerk"`
}

// MotionCommand is the high-level target request from the autonomy stack.
// The zero value is a valid neutral command (coast, wheels straight).
type MotionCommand struct {
	Stamp        TimeStamp           `json:"stamp"`
	Lateral      LateralCommand      `json:"lateral"`
	Longitudinal LongitudinalCommand `json:"longitudinal"`
}

// VelocityStatus reports the vehicle's current kinematic state.
// LateralVelocity is not modeled and is always zero.
type VelocityStatus struct {
	Header               Header  `json:"header"`
	LongitudinalVelocity float64 `json:"longitudinal_velocity"`
	LateralVelocity      float64 `json:"lateral_velocity"`
	HeadingRate          float64 `json:"heading_rate"`
}

// Gear command values, matching the autonomy stack's gear report enum.
const (
	GearNeutral uint8 = 1
	GearDrive   uint8 = 2
	GearReverse uint8 = 20
	GearPark    uint8 = 22
)

// GearCommand selects the transmission gear.
// Received but not acted on: gear selection beyond reverse is unimplemented.
type GearCommand struct {
	Stamp   TimeStamp `json:"stamp"`
	Command uint8     `json:"command"`
}

// Gate mode values.
const (
	GateModeAuto     uint8 = 0
	GateModeExternal uint8 = 1
)

// GateMode selects between autonomous and external control.
// Received but not acted on.
type GateMode struct {
	Data uint8 `json:"data"`
}

// DecodeMotionCommand parses an inbound control_cmd payload.
func DecodeMotionCommand(payload []byte) (MotionCommand, error) {
	var cmd MotionCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return MotionCommand{}, fmt.Errorf("decode motion command: %w", err)
	}
	return cmd, nil
}

// DecodeGearCommand parses an inbound gear_cmd payload.
func DecodeGearCommand(payload []byte) (GearCommand, error) {
	var cmd GearCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return GearCommand{}, fmt.Errorf("decode gear command: %w", err)
	}
	return cmd, nil
}

// DecodeGateMode parses an inbound gate_mode_cmd payload.
func DecodeGateMode(payload []byte) (GateMode, error) {
	var mode GateMode
	if err := json.Unmarshal(payload, &mode); err != nil {
		return GateMode{}, fmt.Errorf("decode gate mode: %w", err)
	}
	return mode, nil
}

// Encode returns the JSON encoding of the status message.
func (s VelocityStatus) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode velocity status: %w", err)
	}
	return data, nil
}
