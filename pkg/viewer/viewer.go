// Package viewer wires the demo pipeline together: the backend frontend,
// the video receiver, gaze state, optional pedestrian detection and
// tracking, overlay rendering, alerting, and the web dashboard.
package viewer

import (
	"context"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/oculon/gazeguard/internal/config"
	"github.com/oculon/gazeguard/internal/log"
	"github.com/oculon/gazeguard/pkg/alert"
	"github.com/oculon/gazeguard/pkg/detect"
	"github.com/oculon/gazeguard/pkg/frontend"
	"github.com/oculon/gazeguard/pkg/gaze"
	"github.com/oculon/gazeguard/pkg/overlay"
	"github.com/oculon/gazeguard/pkg/protocol"
	"github.com/oculon/gazeguard/pkg/track"
	"github.com/oculon/gazeguard/pkg/video"
	"github.com/oculon/gazeguard/pkg/web"
)

// Config holds the pipeline settings shared by both demo variants.
type Config struct {
	BackendAddr string
	VideoPort   int

	// Backend startup sequence parameters.
	GazeRateHz        float64
	CameraIndex       int
	Resolution        protocol.CameraResolution
	CorrectDistortion bool
	LogMode           protocol.LogMode

	// Gaze-space dimensions the backend reports coordinates in.
	GazeWidth  int
	GazeHeight int

	DisplayWidth int // Frames are resized to this width for processing/display
	DetectStride int // Run the detector every Nth frame

	WindowTitle string
	ShowWindow  bool

	JPEGQuality int // Dashboard re-encode quality
}

// DefaultConfig returns the startup parameters both demos use: 125 Hz gaze,
// scene camera index 1 at medium resolution, basic log session.
func DefaultConfig() Config {
	return Config{
		BackendAddr:  config.BackendAddr(),
		VideoPort:    config.VideoPort(),
		GazeRateHz:   125,
		CameraIndex:  1,
		Resolution:   protocol.ResolutionMedium,
		LogMode:      protocol.LogModeBasic,
		GazeWidth:    config.DefaultGazeWidth,
		GazeHeight:   config.DefaultGazeHeight,
		DisplayWidth: 640,
		DetectStride: 3,
		WindowTitle:  "Gaze viewer",
		ShowWindow:   true,
		JPEGQuality:  80,
	}
}

// Viewer runs the receive-annotate-display loop.
type Viewer struct {
	cfg Config

	fe    *frontend.Frontend
	rx    *video.Receiver
	gazes *gaze.State

	renderer *overlay.Renderer

	// Guard-mode components; nil in marker-only mode.
	detector detect.Detector
	tracker  *track.Tracker
	trackCfg track.Config
	notifier *alert.Notifier

	dashboard *web.Server

	frames chan video.Frame
}

// New creates a marker-only viewer.
func New(cfg Config) *Viewer {
	return &Viewer{
		cfg:      cfg,
		gazes:    gaze.NewState(gaze.DefaultConfig()),
		renderer: overlay.NewRenderer(overlay.ViewerConfig()),
		frames:   make(chan video.Frame, 4),
	}
}

// EnableGuard turns on detection, tracking, and alerting. Must be called
// before Run.
func (v *Viewer) EnableGuard(det detect.Detector, trackCfg track.Config, notifier *alert.Notifier) {
	v.detector = det
	v.tracker = track.New(trackCfg)
	v.trackCfg = trackCfg
	v.notifier = notifier
	v.renderer = overlay.NewRenderer(overlay.DefaultConfig())
}

// EnableDashboard attaches a web dashboard. Must be called before Run.
func (v *Viewer) EnableDashboard(srv *web.Server) {
	v.dashboard = srv
}

// Run connects to the backend, starts the streams, and processes frames
// until ctx is cancelled or the preview window reports 'q'.
func (v *Viewer) Run(ctx context.Context) error {
	v.rx = video.NewReceiver(v.cfg.VideoPort)
	v.rx.SetFrameHandler(func(f video.Frame) {
		select {
		case v.frames <- f:
		default:
			// Frame loop is behind; drop rather than build latency.
		}
	})
	if err := v.rx.Start(); err != nil {
		return err
	}
	defer v.rx.Close()

	v.fe = frontend.New(v.cfg.BackendAddr)
	v.fe.OnGazeInImage(func(d protocol.GazeInImageData) {
		v.gazes.Update(d.Timestamp, d.X, d.Y)
	})

	connected := make(chan error, 1)
	if err := v.fe.Start(ctx, func(err error) { connected <- err }); err != nil {
		return err
	}
	defer v.fe.Shutdown()

	select {
	case err := <-connected:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := v.startSession(); err != nil {
		return err
	}

	if v.dashboard != nil {
		v.dashboard.StartAsync()
		defer v.dashboard.Shutdown()
		v.dashboard.UpdateState(func(s *web.State) {
			s.BackendConnected = true
			s.SessionID = v.fe.SessionID()
		})
		v.dashboard.AddLog("info", "backend session established")
	}

	return v.frameLoop(ctx)
}

// startSession replays the original demo startup order: gaze stream rate,
// camera capture, log session, then video stream to our receiver.
func (v *Viewer) startSession() error {
	if err := v.fe.SetStreamControl(protocol.TypeGazeInImage, v.cfg.GazeRateHz); err != nil {
		return fmt.Errorf("enable gaze stream: %w", err)
	}

	if err := v.fe.StartCameraCapture(v.cfg.CameraIndex, v.cfg.Resolution, v.cfg.CorrectDistortion); err != nil {
		// The camera is usually held by another frontend; nothing works
		// without it, so give up like the original does.
		log.Error("viewer: camera start failed", "err", err)
		return fmt.Errorf("start camera capture: %w", err)
	}

	if v.cfg.LogMode != protocol.LogModeNone {
		if err := v.fe.StartLogSession(v.cfg.LogMode); err != nil {
			log.Warn("viewer: log session not started", "err", err)
		}
	}

	host, port := v.rx.Addr()
	if err := v.fe.StartVideoStream(host, port); err != nil {
		return fmt.Errorf("start video stream: %w", err)
	}

	log.Info("viewer: session started",
		"camera", v.cfg.CameraIndex, "resolution", v.cfg.Resolution,
		"gaze_rate_hz", v.cfg.GazeRateHz, "video_addr", fmt.Sprintf("%s:%d", host, port))
	return nil
}

func (v *Viewer) frameLoop(ctx context.Context) error {
	var window *gocv.Window
	if v.cfg.ShowWindow {
		window = gocv.NewWindow(v.cfg.WindowTitle)
		defer window.Close()
	}

	var frameIdx int
	lastStateUpdate := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-v.frames:
			quit := v.processFrame(frame, window, frameIdx, &lastStateUpdate)
			frameIdx++
			if quit {
				log.Info("viewer: quit requested", "frames", v.rx.Stats().Frames)
				return nil
			}
		}
	}
}

// processFrame annotates and publishes one frame. Returns true when the
// preview window asks to quit.
func (v *Viewer) processFrame(frame video.Frame, window *gocv.Window, frameIdx int, lastStateUpdate *time.Time) bool {
	img, err := video.Decode(frame.JPEG)
	if err != nil {
		log.Debug("viewer: frame decode failed", "err", err)
		return false
	}
	defer img.Close()

	display := video.ResizeToWidth(img, v.cfg.DisplayWidth)
	defer display.Close()
	if display.Empty() {
		return false
	}

	sample, ok := v.gazes.Smoothed()
	gazeOK := ok && sample.Valid()
	var gazePt image.Point
	if gazeOK {
		gazePt = gaze.MapToFrame(sample, v.cfg.GazeWidth, v.cfg.GazeHeight,
			display.Cols(), display.Rows())
	}

	shouldAlert := false
	var people []track.Person
	if v.tracker != nil {
		if v.cfg.DetectStride > 0 && frameIdx%v.cfg.DetectStride == 0 {
			dets, err := v.detector.Detect(frame.JPEG)
			if err != nil {
				log.Warn("viewer: detection failed", "err", err)
			} else {
				v.tracker.Update(scaleDetections(dets, img.Cols(), display.Cols()))
			}
		}

		v.tracker.ObserveGaze(gazePt, gazeOK)
		people = v.tracker.People()

		for _, p := range people {
			if !p.Seen && p.IsClose(display.Rows(), v.trackCfg.CloseHeightFrac) {
				shouldAlert = true
				break
			}
		}
		v.notifier.Observe(shouldAlert)

		v.renderer.DrawPeople(&display, people, display.Rows(), v.trackCfg.CloseHeightFrac)
	}

	v.renderer.DrawGazeMarker(&display, gazePt, gazeOK)
	v.renderer.DrawHUD(&display, sample.X, sample.Y, gazeOK)

	if v.dashboard != nil {
		if jpeg, err := video.Encode(display, v.cfg.JPEGQuality); err == nil {
			v.dashboard.SendCameraFrame(jpeg)
		}
		if time.Since(*lastStateUpdate) >= 250*time.Millisecond {
			*lastStateUpdate = time.Now()
			v.publishState(sample, gazeOK, people, display.Rows(), shouldAlert)
		}
	}

	if window != nil {
		window.IMShow(display)
		if key := window.WaitKey(1); key == 'q' {
			return true
		}
	}

	return false
}

func (v *Viewer) publishState(sample gaze.Sample, gazeOK bool, people []track.Person, frameHeight int, alertActive bool) {
	unseen, closeCount := 0, 0
	for _, p := range people {
		if !p.Seen {
			unseen++
		}
		if p.IsClose(frameHeight, v.trackCfg.CloseHeightFrac) {
			closeCount++
		}
	}

	// NaN coordinates would break JSON encoding of the state.
	gx, gy := sample.X, sample.Y
	if !gazeOK {
		gx, gy = 0, 0
	}

	stats := v.rx.Stats()
	v.dashboard.UpdateState(func(s *web.State) {
		s.BackendConnected = v.fe.Connected()
		s.GazeX, s.GazeY = gx, gy
		s.GazeValid = gazeOK
		s.FramesReceived = stats.Frames
		s.TrackedPeople = len(people)
		s.UnseenPeople = unseen
		s.ClosePeople = closeCount
		s.AlertActive = alertActive
	})
}

// scaleDetections maps detections from source-image pixels onto the resized
// display frame.
func scaleDetections(dets []detect.Detection, srcWidth, dstWidth int) []detect.Detection {
	if srcWidth == 0 || srcWidth == dstWidth {
		return dets
	}
	ratio := float64(dstWidth) / float64(srcWidth)

	scaled := make([]detect.Detection, len(dets))
	for i, d := range dets {
		scaled[i] = detect.Detection{
			Rect: image.Rect(
				int(float64(d.Rect.Min.X)*ratio),
				int(float64(d.Rect.Min.Y)*ratio),
				int(float64(d.Rect.Max.X)*ratio),
				int(float64(d.Rect.Max.Y)*ratio),
			),
			Confidence: d.Confidence,
		}
	}
	return scaled
}
