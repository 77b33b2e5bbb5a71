// Package web provides a real-time dashboard for the gaze demos
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/oculon/gazeguard/internal/log"
	"github.com/oculon/gazeguard/pkg/hub"
)

// State represents the current demo state for the dashboard
type State struct {
	BackendConnected bool    `json:"backend_connected"`
	SessionID        string  `json:"session_id"`
	GazeX            float64 `json:"gaze_x"`
	GazeY            float64 `json:"gaze_y"`
	GazeValid        bool    `json:"gaze_valid"`
	FramesReceived   uint64  `json:"frames_received"`
	TrackedPeople    int     `json:"tracked_people"`
	UnseenPeople     int     `json:"unseen_people"`
	ClosePeople      int     `json:"close_people"`
	AlertActive      bool    `json:"alert_active"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, gaze, track, alert, error
	Message string `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	port string

	// State
	state   State
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast (thread-safe!)
	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates a new web dashboard server
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		logs:      make([]LogEntry, 0, 500),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Gaze Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start starts the web server
func (s *Server) Start() error {
	log.Info("web dashboard listening", "url", "http://localhost:"+s.port)

	// Start all hubs
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "err", err)
		}
	}()
}

// UpdateState updates the demo state and broadcasts to clients
func (s *Server) UpdateState(update func(*State)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	// Broadcast via hub (thread-safe!)
	s.statusHub.BroadcastJSON(state)
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	// Broadcast via hub (thread-safe!)
	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame sends an annotated frame to all connected clients
func (s *Server) SendCameraFrame(jpegData []byte) {
	// Broadcast via hub (thread-safe!)
	s.cameraHub.BroadcastBinary(jpegData)
}

// CameraClientCount returns the number of live camera viewers
func (s *Server) CameraClientCount() int {
	return s.cameraHub.ClientCount()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
