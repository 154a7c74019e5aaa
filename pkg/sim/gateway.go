package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultCallTimeout bounds one gateway request/response round trip.
// Actor queries run inside the tick budget, so calls must not hang.
const DefaultCallTimeout = 1 * time.Second

// Gateway is a websocket client to the simulator's RPC endpoint.
// Calls are serialized: one request is in flight at a time.
type Gateway struct {
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// Dial connects to the simulator gateway at the given websocket URL,
// e.g. "ws://localhost:8080/rpc".
func Dial(ctx context.Context, endpoint string, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial simulator %s: %w", endpoint, err)
	}

	logger.Info("connected to simulator", "endpoint", endpoint)

	return &Gateway{
		logger:  logger,
		timeout: DefaultCallTimeout,
		conn:    conn,
	}, nil
}

// call performs one request/response round trip. data is marshaled into
// the request payload; the response payload is unmarshaled into out when
// out is non-nil.
func (g *Gateway) call(reqType RequestType, vehicle string, data any, out any) error {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", reqType, err)
		}
	}

	req := Request{
		ID:      uuid.NewString(),
		Type:    reqType,
		Vehicle: vehicle,
		Data:    raw,
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("%s: gateway closed", reqType)
	}

	deadline := time.Now().Add(g.timeout)
	if err := g.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%s: %w", reqType, err)
	}
	if err := g.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%s: write: %w", reqType, err)
	}

	if err := g.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%s: %w", reqType, err)
	}
	var resp Response
	if err := g.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("%s: read: %w", reqType, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%s: response id mismatch: got %s, want %s", reqType, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return fmt.Errorf("%s: simulator error: %s", reqType, resp.Error)
	}

	if out != nil {
		if err := resp.ParseData(out); err != nil {
			return fmt.Errorf("%s: %w", reqType, err)
		}
	}
	return nil
}

// Vehicle attaches to a named vehicle actor in the simulator.
func (g *Gateway) Vehicle(name string) (Actor, error) {
	if err := g.call(ReqAttach, name, nil, nil); err != nil {
		return nil, fmt.Errorf("attach vehicle %s: %w", name, err)
	}
	g.logger.Debug("attached to vehicle", "vehicle", name)
	return &vehicleActor{gateway: g, name: name}, nil
}

// Close closes the gateway connection.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	return g.conn.Close()
}

// vehicleActor implements Actor over the gateway.
type vehicleActor struct {
	gateway *Gateway
	name    string
}

func (a *vehicleActor) PhysicsControl() (VehiclePhysics, error) {
	var physics VehiclePhysics
	if err := a.gateway.call(ReqPhysicsControl, a.name, nil, &physics); err != nil {
		return VehiclePhysics{}, err
	}
	return physics, nil
}

func (a *vehicleActor) Velocity() (Vec3, error) {
	var velocity Vec3
	if err := a.gateway.call(ReqVelocity, a.name, nil, &velocity); err != nil {
		return Vec3{}, err
	}
	return velocity, nil
}

func (a *vehicleActor) WheelSteerAngle(wheel WheelLocation) (float64, error) {
	var resp wheelSteerAngleResponse
	req := wheelSteerAngleRequest{Wheel: wheel}
	if err := a.gateway.call(ReqWheelSteerAngle, a.name, req, &resp); err != nil {
		return 0, err
	}
	return resp.Angle, nil
}

func (a *vehicleActor) Transform() (Transform, error) {
	var transform Transform
	if err := a.gateway.call(ReqTransform, a.name, nil, &transform); err != nil {
		return Transform{}, err
	}
	return transform, nil
}

func (a *vehicleActor) ApplyControl(control VehicleControl) error {
	return a.gateway.call(ReqApplyControl, a.name, control, nil)
}

var _ Actor = (*vehicleActor)(nil)
