package main

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/oculon/gazeguard/internal/config"
	"github.com/oculon/gazeguard/internal/log"
	"github.com/oculon/gazeguard/pkg/protocol"
	"github.com/oculon/gazeguard/pkg/video"
)

const rtpClockRate = 90000

// Blink simulation: tracking drops out for blinkLen every blinkEvery.
const (
	blinkEvery = 4 * time.Second
	blinkLen   = 150 * time.Millisecond
)

// session serves one connected frontend: it answers control requests,
// streams video frames, and synthesizes gaze samples.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	source string
	fps    int
	id     string

	mu          sync.Mutex
	capture     *gocv.VideoCapture
	frameSize   image.Point
	videoCancel context.CancelFunc
	gazeCancel  context.CancelFunc
}

func newSession(conn *websocket.Conn, source string, fps int) *session {
	if fps <= 0 {
		fps = 30
	}
	return &session{
		conn:   conn,
		source: source,
		fps:    fps,
		id:     uuid.NewString(),
	}
}

// run announces the simulated tracker and serves control requests until the
// frontend disconnects.
func (s *session) run() {
	defer s.teardown()

	log.Info("simbackend: frontend connected", "session", s.id)

	connect, err := protocol.NewMessage(protocol.TypeConnect, protocol.ConnectData{
		SessionID:  s.id,
		DeviceName: "Simulated Tracker",
		APIVersion: "1.0",
	})
	if err != nil {
		log.Error("simbackend: connect message", "err", err)
		return
	}
	if err := s.write(connect); err != nil {
		log.Warn("simbackend: connect send failed", "err", err)
		return
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			log.Info("simbackend: frontend disconnected", "session", s.id)
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("simbackend: unparseable request", "err", err)
			continue
		}

		if msg.Type == protocol.TypeShutdown {
			log.Info("simbackend: shutdown requested", "session", s.id)
			return
		}

		s.ack(msg, s.handle(msg))
	}
}

// handle executes one control request and returns its outcome.
func (s *session) handle(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeSetStreamControl:
		var req protocol.StreamControlRequest
		if err := msg.ParseData(&req); err != nil {
			return err
		}
		if req.Stream != protocol.TypeGazeInImage {
			return fmt.Errorf("stream %s not simulated", req.Stream)
		}
		s.setGazeRate(req.RateHz)
		return nil

	case protocol.TypeStartCameraCapture:
		var req protocol.CameraCaptureRequest
		if err := msg.ParseData(&req); err != nil {
			return err
		}
		return s.startCamera(req)

	case protocol.TypeStopCameraCapture:
		s.stopCamera()
		return nil

	case protocol.TypeStartVideoStream:
		var req protocol.VideoStreamRequest
		if err := msg.ParseData(&req); err != nil {
			return err
		}
		return s.startVideo(req.Host, req.Port)

	case protocol.TypeStopVideoStream:
		s.stopVideo()
		return nil

	case protocol.TypeStartLogSession, protocol.TypeStopLogSession:
		// Nothing to record in the simulator; accept and move on.
		log.Debug("simbackend: log session request", "type", msg.Type)
		return nil

	default:
		return fmt.Errorf("unsupported request %s", msg.Type)
	}
}

func (s *session) ack(req *protocol.Message, result error) {
	data := protocol.AckData{OK: result == nil}
	if result != nil {
		data.Error = result.Error()
		log.Warn("simbackend: request failed", "type", req.Type, "err", result)
	}

	reply, err := protocol.NewReply(req, protocol.TypeAck, data)
	if err != nil {
		log.Error("simbackend: ack encode", "err", err)
		return
	}
	if err := s.write(reply); err != nil {
		log.Warn("simbackend: ack send failed", "err", err)
	}
}

func (s *session) write(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) startCamera(req protocol.CameraCaptureRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture != nil {
		return fmt.Errorf("camera already capturing")
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if s.source != "" {
		vc, err = gocv.OpenVideoCapture(s.source)
	} else {
		vc, err = gocv.OpenVideoCapture(req.CameraIndex)
	}
	if err != nil {
		return fmt.Errorf("open video source: %w", err)
	}

	w, h := req.Resolution.Size()
	s.capture = vc
	s.frameSize = image.Pt(w, h)
	log.Info("simbackend: camera started", "source", s.source, "size", fmt.Sprintf("%dx%d", w, h))
	return nil
}

func (s *session) stopCamera() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.videoCancel != nil {
		s.videoCancel()
		s.videoCancel = nil
	}
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
}

func (s *session) startVideo(host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return fmt.Errorf("camera not capturing")
	}
	if s.videoCancel != nil {
		return fmt.Errorf("video stream already running")
	}

	sender, err := video.NewSender(host, port, uuid.New().ID())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.videoCancel = cancel
	go s.streamVideo(ctx, sender)

	log.Info("simbackend: video stream started", "addr", fmt.Sprintf("%s:%d", host, port))
	return nil
}

func (s *session) stopVideo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.videoCancel != nil {
		s.videoCancel()
		s.videoCancel = nil
	}
}

// streamVideo reads frames from the capture source and sends them as
// RTP/JPEG at the configured rate. File sources loop at EOF.
func (s *session) streamVideo(ctx context.Context, sender *video.Sender) {
	defer sender.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	resized := gocv.NewMat()
	defer resized.Close()

	step := uint32(rtpClockRate / s.fps)
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Read under the lock so a concurrent stop cannot close the
		// capture mid-read.
		s.mu.Lock()
		if s.capture == nil {
			s.mu.Unlock()
			return
		}
		ok := s.capture.Read(&frame)
		if !ok || frame.Empty() {
			// File source reached EOF: rewind and keep going.
			s.capture.Set(gocv.VideoCapturePosFrames, 0)
			s.mu.Unlock()
			continue
		}
		size := s.frameSize
		s.mu.Unlock()

		gocv.Resize(frame, &resized, size, 0, 0, gocv.InterpolationLinear)
		jpeg, err := video.Encode(resized, 80)
		if err != nil {
			log.Warn("simbackend: frame encode failed", "err", err)
			continue
		}
		if err := sender.SendFrame(jpeg, step); err != nil {
			log.Warn("simbackend: frame send failed", "err", err)
			return
		}
	}
}

func (s *session) setGazeRate(rateHz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gazeCancel != nil {
		s.gazeCancel()
		s.gazeCancel = nil
	}
	if rateHz <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.gazeCancel = cancel
	go s.streamGaze(ctx, rateHz)
	log.Info("simbackend: gaze stream started", "rate_hz", rateHz)
}

// streamGaze synthesizes a wandering gaze point: a Lissajous sweep across
// the scene-camera space, with NaN dropouts simulating blinks.
func (s *session) streamGaze(ctx context.Context, rateHz float64) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rateHz))
	defer ticker.Stop()

	start := time.Now()
	w := float64(config.DefaultGazeWidth)
	h := float64(config.DefaultGazeHeight)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		elapsed := time.Since(start)
		x := w/2 + 0.4*w*math.Sin(0.7*elapsed.Seconds())
		y := h/2 + 0.4*h*math.Sin(1.1*elapsed.Seconds()+math.Pi/3)
		if elapsed%blinkEvery < blinkLen {
			x, y = math.NaN(), math.NaN()
		}

		msg, err := protocol.NewMessage(protocol.TypeGazeInImage, protocol.GazeInImageData{
			Timestamp: elapsed.Seconds(),
			X:         x,
			Y:         y,
		})
		if err != nil {
			log.Error("simbackend: gaze encode", "err", err)
			return
		}
		if err := s.write(msg); err != nil {
			return
		}
	}
}

func (s *session) teardown() {
	s.mu.Lock()
	if s.gazeCancel != nil {
		s.gazeCancel()
		s.gazeCancel = nil
	}
	s.mu.Unlock()

	s.stopVideo()
	s.stopCamera()
	s.conn.Close()
}
