// Package web serves the bridge's diagnostics API: health, per-vehicle
// status, and a live status stream over websocket. It reads advisory
// values only and never touches the control path.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/evshary/go-carla-bridge/pkg/bridge"
	"github.com/evshary/go-carla-bridge/pkg/hub"
)

// statusInterval is how often the live stream pushes a snapshot.
const statusInterval = 500 * time.Millisecond

// StatusSource provides diagnostics snapshots of the running bridges.
type StatusSource interface {
	Snapshot() []bridge.VehicleStatus
}

// Server is the diagnostics HTTP/websocket server.
type Server struct {
	app    *fiber.App
	addr   string
	source StatusSource

	statusHub *hub.Hub
	stop      chan struct{}
}

// NewServer creates a diagnostics server listening on addr.
func NewServer(addr string, source StatusSource) *Server {
	s := &Server{
		addr:      addr,
		source:    source,
		statusHub: hub.New("status"),
		stop:      make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "carla-bridge",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/vehicles", s.handleVehicles)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusStream))

	s.app = app
	return s
}

// Start runs the server. Blocks until Shutdown is called.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.broadcastLoop()
	return s.app.Listen(s.addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	close(s.stop)
	return s.app.Shutdown()
}

// broadcastLoop periodically pushes snapshots to stream clients.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			s.statusHub.BroadcastJSON(s.source.Snapshot())
		}
	}
}

// handleStatusStream attaches a websocket client to the status hub.
func (s *Server) handleStatusStream(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	client.Run()
}
