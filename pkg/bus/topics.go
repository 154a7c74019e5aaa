package bus

import "fmt"

// Topic suffixes for per-vehicle communication.
// All topics are prefixed with the vehicle name.

// TopicControlCmd carries inbound motion commands.
const TopicControlCmd = "control_cmd"

// TopicGearCmd carries inbound gear selection commands.
const TopicGearCmd = "gear_cmd"

// TopicGateModeCmd carries inbound gate mode commands.
const TopicGateModeCmd = "gate_mode_cmd"

// TopicVelocityStatus carries outbound velocity status reports.
const TopicVelocityStatus = "velocity_status"

// Topics builds fully-qualified topic names for one vehicle.
type Topics struct {
	vehicle string
}

// NewTopics creates a Topics helper for the given vehicle name.
func NewTopics(vehicle string) *Topics {
	return &Topics{vehicle: vehicle}
}

// ControlCmd returns the full control command topic.
func (t *Topics) ControlCmd() string {
	return fmt.Sprintf("%s/%s", t.vehicle, TopicControlCmd)
}

// GearCmd returns the full gear command topic.
func (t *Topics) GearCmd() string {
	return fmt.Sprintf("%s/%s", t.vehicle, TopicGearCmd)
}

// GateModeCmd returns the full gate mode command topic.
func (t *Topics) GateModeCmd() string {
	return fmt.Sprintf("%s/%s", t.vehicle, TopicGateModeCmd)
}

// VelocityStatus returns the full velocity status topic.
func (t *Topics) VelocityStatus() string {
	return fmt.Sprintf("%s/%s", t.vehicle, TopicVelocityStatus)
}
