// Package bridge connects one simulated vehicle actor to the autonomy
// stack: it stages inbound motion commands, publishes velocity status
// each tick, and applies controller output to the actor.
package bridge

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/evshary/go-carla-bridge/pkg/autoware"
	"github.com/evshary/go-carla-bridge/pkg/bus"
	"github.com/evshary/go-carla-bridge/pkg/control"
	"github.com/evshary/go-carla-bridge/pkg/sim"
)

// headingRatePerDegree converts one degree of front wheel steer angle
// into the reported heading rate. This is an empirical constant, not a
// physical derivation; downstream consumers expect exactly this value.
const headingRatePerDegree = -0.00866

// Bridge is the per-vehicle bridge. Inbound commands arrive on bus
// delivery goroutines and land in the command store; Step is invoked by
// the tick driver and must not be called concurrently with itself.
type Bridge struct {
	name   string
	actor  sim.Actor
	ctrl   control.Controller
	logger *slog.Logger

	pubVelocity bus.Publisher
	subs        []bus.Subscriber

	store CommandStore

	// speed holds the last published longitudinal speed as float64 bits.
	// Single writer (Step), read by diagnostics consumers.
	speed atomic.Uint64

	ticks       atomic.Uint64
	decodeDrops atomic.Uint64
}

// New creates a bridge for the named vehicle. The actor's physics
// parameters are queried once to build the actuation controller; the
// velocity publisher and command subscriptions are registered on the
// session. Any transport failure here aborts construction.
func New(session bus.Session, name string, actor sim.Actor, logger *slog.Logger) (*Bridge, error) {
	physics, err := actor.PhysicsControl()
	if err != nil {
		return nil, fmt.Errorf("bridge %s: query physics: %w", name, err)
	}
	return NewWithController(session, name, actor, control.NewAckermann(physics), logger)
}

// NewWithController creates a bridge with an explicit actuation
// controller. The controller boundary is swappable; the bridge only
// relies on the SetTarget/Step contract.
func NewWithController(session bus.Session, name string, actor sim.Actor, ctrl control.Controller, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bridge{
		name:   name,
		actor:  actor,
		ctrl:   ctrl,
		logger: logger.With("vehicle", name),
	}

	topics := bus.NewTopics(name)

	pub, err := session.DeclarePublisher(topics.VelocityStatus())
	if err != nil {
		return nil, fmt.Errorf("bridge %s: declare velocity publisher: %w", name, err)
	}
	b.pubVelocity = pub

	subscriptions := []struct {
		topic   string
		handler func(payload []byte)
	}{
		{topics.ControlCmd(), b.handleControlCmd},
		{topics.GearCmd(), b.handleGearCmd},
		{topics.GateModeCmd(), b.handleGateModeCmd},
	}
	for _, s := range subscriptions {
		sub, err := session.Subscribe(s.topic, s.handler)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("bridge %s: subscribe %s: %w", name, s.topic, err)
		}
		b.subs = append(b.subs, sub)
	}

	b.logger.Info("vehicle bridge ready")
	return b, nil
}

// handleControlCmd stages an inbound motion command. Malformed payloads
// are dropped and the previous command stays in effect.
func (b *Bridge) handleControlCmd(payload []byte) {
	cmd, err := autoware.DecodeMotionCommand(payload)
	if err != nil {
		b.decodeDrops.Add(1)
		b.logger.Debug("dropping malformed control command", "error", err)
		return
	}
	b.store.Update(cmd)
}

// handleGearCmd receives gear commands. Gear selection is not wired to
// the actor yet; commands are decoded and ignored.
// TODO: apply reverse gear from the command instead of deriving it from
// the target speed sign.
func (b *Bridge) handleGearCmd(payload []byte) {
	cmd, err := autoware.DecodeGearCommand(payload)
	if err != nil {
		b.logger.Debug("dropping malformed gear command", "error", err)
		return
	}
	b.logger.Debug("gear command ignored", "command", cmd.Command)
}

// handleGateModeCmd receives gate mode commands. Decoded and ignored.
func (b *Bridge) handleGateModeCmd(payload []byte) {
	mode, err := autoware.DecodeGateMode(payload)
	if err != nil {
		b.logger.Debug("dropping malformed gate mode command", "error", err)
		return
	}
	b.logger.Debug("gate mode command ignored", "mode", mode.Data)
}

// Step runs one tick: publish current state, then translate the latest
// motion command into actuation and apply it. elapsedSec is the time
// since the previous tick. Errors are fatal for this vehicle and abort
// the tick; publication always precedes actuation.
func (b *Bridge) Step(elapsedSec float64) error {
	if err := b.publishVelocity(); err != nil {
		return err
	}
	if err := b.updateControl(elapsedSec); err != nil {
		return err
	}
	b.ticks.Add(1)
	return nil
}

// publishVelocity reports the actor's kinematic state on the bus and
// refreshes the shared speed scalar.
func (b *Bridge) publishVelocity() error {
	velocity, err := b.actor.Velocity()
	if err != nil {
		return fmt.Errorf("bridge %s: query velocity: %w", b.name, err)
	}
	wheelAngle, err := b.actor.WheelSteerAngle(sim.WheelFrontLeft)
	if err != nil {
		return fmt.Errorf("bridge %s: query wheel angle: %w", b.name, err)
	}

	status := autoware.VelocityStatus{
		// Header stamp and frame id are placeholders until a simulator
		// clock source is plumbed through.
		LongitudinalVelocity: velocity.Norm(),
		// Lateral velocity is not modeled.
		LateralVelocity: 0,
		HeadingRate:     wheelAngle * headingRatePerDegree,
	}

	payload, err := status.Encode()
	if err != nil {
		return fmt.Errorf("bridge %s: %w", b.name, err)
	}
	if err := b.pubVelocity.Put(payload); err != nil {
		return fmt.Errorf("bridge %s: publish velocity: %w", b.name, err)
	}

	b.speed.Store(math.Float64bits(status.LongitudinalVelocity))
	b.logger.Debug("published velocity status",
		"speed", status.LongitudinalVelocity,
		"heading_rate", status.HeadingRate,
	)
	return nil
}

// updateControl translates the latest motion command into actuation and
// applies it to the actor.
func (b *Bridge) updateControl(elapsedSec float64) error {
	cmd := b.store.Read()

	velocity, err := b.actor.Velocity()
	if err != nil {
		return fmt.Errorf("bridge %s: query velocity: %w", b.name, err)
	}
	transform, err := b.actor.Transform()
	if err != nil {
		return fmt.Errorf("bridge %s: query transform: %w", b.name, err)
	}

	currentSpeed := velocity.Norm()
	pitch := transform.Rotation.PitchRadians()

	// The stack reports steering in radians with the opposite sign
	// convention from the actuator frame.
	b.ctrl.SetTarget(control.TargetRequest{
		SteeringAngle: -cmd.Lateral.SteeringTireAngle * 180 / math.Pi,
		Speed:         cmd.Longitudinal.Speed,
		Accel:         cmd.Longitudinal.Acceleration,
	})
	out, _ := b.ctrl.Step(elapsedSec, currentSpeed, pitch)

	b.logger.Debug("applying control",
		"throttle", out.Throttle,
		"brake", out.Brake,
		"steer", out.Steer,
		"reverse", out.Reverse,
	)

	// TODO: forward gear selection; only reverse is handled.
	err = b.actor.ApplyControl(sim.VehicleControl{
		Throttle:        float32(out.Throttle),
		Steer:           float32(out.Steer),
		Brake:           float32(out.Brake),
		HandBrake:       out.HandBrake,
		Reverse:         out.Reverse,
		ManualGearShift: false,
		Gear:            0,
	})
	if err != nil {
		return fmt.Errorf("bridge %s: apply control: %w", b.name, err)
	}
	return nil
}

// Name returns the vehicle name.
func (b *Bridge) Name() string {
	return b.name
}

// CurrentSpeed returns the last published longitudinal speed in m/s.
// Safe to call from any goroutine; advisory only.
func (b *Bridge) CurrentSpeed() float64 {
	return math.Float64frombits(b.speed.Load())
}

// Ticks returns the number of completed Step calls.
func (b *Bridge) Ticks() uint64 {
	return b.ticks.Load()
}

// DecodeDrops returns the number of inbound commands dropped because
// they failed to decode.
func (b *Bridge) DecodeDrops() uint64 {
	return b.decodeDrops.Load()
}

// Close releases the bridge's bus resources.
func (b *Bridge) Close() error {
	var firstErr error
	for _, sub := range b.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.subs = nil
	if b.pubVelocity != nil {
		if err := b.pubVelocity.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
