// Gazeviewer - minimal gaze overlay demo
//
// Connects to the eye-tracker backend, receives the scene-camera stream,
// and draws the gaze marker and coordinate HUD in a preview window.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/oculon/gazeguard/internal/config"
	"github.com/oculon/gazeguard/internal/log"
	"github.com/oculon/gazeguard/pkg/viewer"
)

func main() {
	cfg := viewer.DefaultConfig()
	cfg.WindowTitle = "Gaze marker"

	backend := flag.String("backend", cfg.BackendAddr, "Backend control-channel URL (ws://)")
	videoPort := flag.Int("video-port", cfg.VideoPort, "UDP port to receive the video stream on")
	width := flag.Int("width", cfg.DisplayWidth, "Display width in pixels")
	camera := flag.Int("camera", cfg.CameraIndex, "Scene camera index")
	noWindow := flag.Bool("no-window", false, "Disable the preview window")
	flag.Parse()

	log.Init(config.LogLevel())

	cfg.BackendAddr = *backend
	cfg.VideoPort = *videoPort
	cfg.DisplayWidth = *width
	cfg.CameraIndex = *camera
	cfg.ShowWindow = !*noWindow

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v := viewer.New(cfg)
	if err := v.Run(ctx); err != nil {
		log.Error("gazeviewer failed", "err", err)
		os.Exit(1)
	}
}
