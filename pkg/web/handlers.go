package web

import "github.com/gofiber/fiber/v2"

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleVehicles returns the current per-vehicle status snapshot.
func (s *Server) handleVehicles(c *fiber.Ctx) error {
	return c.JSON(s.source.Snapshot())
}
