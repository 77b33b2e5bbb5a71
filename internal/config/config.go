// Package config provides configuration helpers for gazeguard commands.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Default configuration.
const (
	DefaultBackendAddr = "ws://127.0.0.1:11032/api"
	DefaultVideoPort   = 11033
	DefaultWebPort     = "8090"
	DefaultModelPath   = "models/yolov8n.onnx"
	DefaultAlertSound  = "sounds/warning.wav"

	// Gaze coordinates arrive in the tracker's scene-camera pixel space.
	DefaultGazeWidth  = 1280
	DefaultGazeHeight = 720
)

// BackendAddr returns the tracker backend WebSocket URL from BACKEND_ADDR.
// Falls back to the local default if not set.
func BackendAddr() string {
	if addr := os.Getenv("BACKEND_ADDR"); addr != "" {
		return addr
	}
	return DefaultBackendAddr
}

// BackendAddrRequired returns the backend URL from BACKEND_ADDR.
// Exits if not set.
func BackendAddrRequired() string {
	addr := os.Getenv("BACKEND_ADDR")
	if addr == "" {
		fmt.Fprintln(os.Stderr, "Error: BACKEND_ADDR environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: BACKEND_ADDR=ws://127.0.0.1:11032/api go run ./cmd/...")
		os.Exit(1)
	}
	return addr
}

// VideoPort returns the UDP port the video receiver binds from VIDEO_PORT.
func VideoPort() int {
	if v := os.Getenv("VIDEO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			return port
		}
	}
	return DefaultVideoPort
}

// WebPort returns the dashboard HTTP port from WEB_PORT.
func WebPort() string {
	if port := os.Getenv("WEB_PORT"); port != "" {
		return port
	}
	return DefaultWebPort
}

// ModelPath returns the detector model path from MODEL_PATH.
func ModelPath() string {
	if path := os.Getenv("MODEL_PATH"); path != "" {
		return path
	}
	return DefaultModelPath
}

// AlertSound returns the warning sound file path from ALERT_SOUND.
func AlertSound() string {
	if path := os.Getenv("ALERT_SOUND"); path != "" {
		return path
	}
	return DefaultAlertSound
}

// LogLevel returns the log level from LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}
