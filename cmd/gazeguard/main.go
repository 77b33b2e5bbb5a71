// Gazeguard - gaze-aware pedestrian warning demo
//
// Extends the gaze overlay with person detection and tracking: every person
// in the scene is tracked across frames, marked seen once the wearer's gaze
// lands on them, and a warning sound plays while a close person remains
// unseen. A web dashboard shows the annotated stream and live state.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/oculon/gazeguard/internal/config"
	"github.com/oculon/gazeguard/internal/log"
	"github.com/oculon/gazeguard/pkg/alert"
	"github.com/oculon/gazeguard/pkg/detect"
	"github.com/oculon/gazeguard/pkg/track"
	"github.com/oculon/gazeguard/pkg/viewer"
	"github.com/oculon/gazeguard/pkg/web"
)

func main() {
	cfg := viewer.DefaultConfig()
	cfg.WindowTitle = "Gaze guard"

	backend := flag.String("backend", cfg.BackendAddr, "Backend control-channel URL (ws://)")
	videoPort := flag.Int("video-port", cfg.VideoPort, "UDP port to receive the video stream on")
	width := flag.Int("width", cfg.DisplayWidth, "Display width in pixels")
	camera := flag.Int("camera", cfg.CameraIndex, "Scene camera index")
	stride := flag.Int("detect-stride", cfg.DetectStride, "Run the detector every Nth frame")
	modelPath := flag.String("model", config.ModelPath(), "YOLOv8 ONNX model path")
	sound := flag.String("sound", config.AlertSound(), "Warning sound file")
	webPort := flag.String("web-port", config.WebPort(), "Dashboard HTTP port (empty disables)")
	noWindow := flag.Bool("no-window", false, "Disable the preview window")
	flag.Parse()

	log.Init(config.LogLevel())

	cfg.BackendAddr = *backend
	cfg.VideoPort = *videoPort
	cfg.DisplayWidth = *width
	cfg.CameraIndex = *camera
	cfg.DetectStride = *stride
	cfg.ShowWindow = !*noWindow

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	detCfg := detect.DefaultConfig()
	detCfg.ModelPath = *modelPath
	if err := detect.EnsureModel(ctx, detCfg); err != nil {
		log.Error("model download failed", "path", detCfg.ModelPath, "err", err)
		os.Exit(1)
	}
	detector, err := detect.NewYOLO(detCfg)
	if err != nil {
		log.Error("detector init failed", "err", err)
		os.Exit(1)
	}
	defer detector.Close()

	notifier := alert.NewNotifier(alert.DefaultConfig(), alert.NewExecPlayer(*sound))

	v := viewer.New(cfg)
	v.EnableGuard(detector, track.DefaultConfig(), notifier)
	if *webPort != "" {
		v.EnableDashboard(web.NewServer(*webPort))
	}

	if err := v.Run(ctx); err != nil {
		log.Error("gazeguard failed", "err", err)
		os.Exit(1)
	}
}
