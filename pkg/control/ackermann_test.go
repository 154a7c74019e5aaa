package control

import (
	"testing"

	"github.com/evshary/go-carla-bridge/pkg/sim"
)

func testPhysics() sim.VehiclePhysics {
	return sim.VehiclePhysics{
		Mass: 1500,
		Wheels: []sim.WheelPhysics{
			{MaxSteerAngle: 70},
			{MaxSteerAngle: 70},
			{},
			{},
		},
	}
}

func TestAckermann_FullStop(t *testing.T) {
	ctrl := NewAckermann(testPhysics())
	ctrl.SetTarget(TargetRequest{})

	out, _ := ctrl.Step(0.05, 0, 0)
	if out.Throttle != 0 {
		t.Errorf("throttle: got %v, want 0", out.Throttle)
	}
	if out.Brake <= 0 {
		t.Errorf("brake: got %v, want > 0 (hold against creep)", out.Brake)
	}
	if out.Reverse {
		t.Error("reverse should be false for zero target")
	}
}

func TestAckermann_AcceleratesTowardTarget(t *testing.T) {
	ctrl := NewAckermann(testPhysics())
	ctrl.SetTarget(TargetRequest{Speed: 10, Accel: 1})

	out, state := ctrl.Step(0.05, 2, 0)
	if out.Throttle <= 0 {
		t.Errorf("throttle: got %v, want > 0 below target speed", out.Throttle)
	}
	if out.Brake != 0 {
		t.Errorf("brake: got %v, want 0", out.Brake)
	}
	if state.SpeedError != 8 {
		t.Errorf("speed error: got %v, want 8", state.SpeedError)
	}
}

func TestAckermann_BrakesWhenTooFast(t *testing.T) {
	ctrl := NewAckermann(testPhysics())
	ctrl.SetTarget(TargetRequest{Speed: 5, Accel: 0})

	out, _ := ctrl.Step(0.05, 20, 0)
	if out.Brake <= 0 {
		t.Errorf("brake: got %v, want > 0 above target speed", out.Brake)
	}
	if out.Throttle != 0 {
		t.Errorf("throttle: got %v, want 0", out.Throttle)
	}
}

func TestAckermann_Reverse(t *testing.T) {
	ctrl := NewAckermann(testPhysics())
	ctrl.SetTarget(TargetRequest{Speed: -3})

	out, _ := ctrl.Step(0.05, 0.5, 0)
	if !out.Reverse {
		t.Error("reverse should be set for negative target speed")
	}
	if out.Throttle <= 0 {
		t.Errorf("throttle: got %v, want > 0 to reach reverse speed", out.Throttle)
	}
}

func TestAckermann_SteerNormalization(t *testing.T) {
	ctrl := NewAckermann(testPhysics())

	ctrl.SetTarget(TargetRequest{SteeringAngle: 35, Speed: 5})
	out, _ := ctrl.Step(0.05, 5, 0)
	if out.Steer != 0.5 {
		t.Errorf("steer: got %v, want 0.5 (35 of 70 degrees)", out.Steer)
	}

	// Saturates at the physical limit.
	ctrl.SetTarget(TargetRequest{SteeringAngle: -200, Speed: 5})
	out, _ = ctrl.Step(0.05, 5, 0)
	if out.Steer != -1 {
		t.Errorf("steer: got %v, want -1", out.Steer)
	}
}

func TestAckermann_PitchCompensation(t *testing.T) {
	uphill := NewAckermann(testPhysics())
	flat := NewAckermann(testPhysics())
	target := TargetRequest{Speed: 10}
	uphill.SetTarget(target)
	flat.SetTarget(target)

	_, flatState := flat.Step(0.05, 10, 0)
	_, uphillState := uphill.Step(0.05, 10, 0.1)

	if uphillState.AccelDemand <= flatState.AccelDemand {
		t.Errorf("uphill demand %v should exceed flat demand %v",
			uphillState.AccelDemand, flatState.AccelDemand)
	}
}

func TestAckermann_IntegralWindupBounded(t *testing.T) {
	gains := DefaultGains()
	ctrl := NewAckermannWithGains(testPhysics(), gains)
	ctrl.SetTarget(TargetRequest{Speed: 30})

	var state State
	for i := 0; i < 10000; i++ {
		_, state = ctrl.Step(0.05, 0.5, 0)
	}
	if state.Integral > gains.IntegralLimit {
		t.Errorf("integral %v exceeds limit %v", state.Integral, gains.IntegralLimit)
	}
}
