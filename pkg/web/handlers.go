package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/oculon/gazeguard/pkg/hub"
)

// handleStatus returns the current demo state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleLogsWS handles WebSocket connections for live logs
func (s *Server) handleLogsWS(c *websocket.Conn) {
	// Send recent logs before joining the broadcast hub
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	client := hub.NewClient(s.logHub, c)
	client.Run() // Blocks until connection closes
}

// handleCameraWS handles WebSocket connections for the annotated frame feed
func (s *Server) handleCameraWS(c *websocket.Conn) {
	client := hub.NewClient(s.cameraHub, c)
	client.Run() // Blocks until connection closes
}

// handleStatusWS handles WebSocket connections for status updates
func (s *Server) handleStatusWS(c *websocket.Conn) {
	// Send current status on connect
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	client := hub.NewClient(s.statusHub, c)
	client.Run() // Blocks until connection closes
}
