package sim

import (
	"encoding/json"
	"fmt"
)

// RequestType identifies a gateway request.
type RequestType string

const (
	ReqAttach          RequestType = "attach"
	ReqPhysicsControl  RequestType = "physics_control"
	ReqVelocity        RequestType = "velocity"
	ReqWheelSteerAngle RequestType = "wheel_steer_angle"
	ReqTransform       RequestType = "transform"
	ReqApplyControl    RequestType = "apply_control"
)

// Request is the envelope for a gateway call.
type Request struct {
	ID      string          `json:"id"`
	Type    RequestType     `json:"type"`
	Vehicle string          `json:"vehicle"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is the envelope for a gateway reply. A non-empty Error means
// the call failed on the simulator side.
type Response struct {
	ID    string          `json:"id"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ParseData unmarshals the response payload into v.
func (r *Response) ParseData(v any) error {
	if r.Data == nil {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}

// wheelSteerAngleRequest selects the wheel to query.
type wheelSteerAngleRequest struct {
	Wheel WheelLocation `json:"wheel"`
}

// wheelSteerAngleResponse carries the steer angle in degrees.
type wheelSteerAngleResponse struct {
	Angle float64 `json:"angle"`
}
