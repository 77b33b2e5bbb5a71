// Package frontend implements the client side of the eye-tracker backend
// API: it owns the control-channel WebSocket, dispatches data-stream packets
// to registered handlers, and exposes the camera, stream, and log-session
// verbs demo applications need.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oculon/gazeguard/internal/log"
	"github.com/oculon/gazeguard/pkg/protocol"
)

// ErrNotConnected is returned by control verbs before the backend session is
// established or after Shutdown.
var ErrNotConnected = errors.New("frontend: not connected")

// ErrRequestTimeout is returned when the backend does not acknowledge a
// control request in time.
var ErrRequestTimeout = errors.New("frontend: request timed out")

const (
	dialTimeout    = 10 * time.Second
	requestTimeout = 5 * time.Second
)

// StreamHandler receives data-stream packets. Handlers run on the read-loop
// goroutine and must not block.
type StreamHandler func(msg *protocol.Message)

// Frontend communicates with the eye-tracker backend service.
type Frontend struct {
	addr string

	ws   *websocket.Conn
	wsMu sync.Mutex // Guards writes

	handlers map[protocol.PacketType]StreamHandler

	pending   map[string]chan protocol.AckData
	pendingMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	closed    bool
	sessionID string

	// Receiver address of the last StartVideoStream, replayed on Shutdown.
	videoHost string
	videoPort int
}

// New creates a frontend for the backend at addr (a ws:// URL).
func New(addr string) *Frontend {
	return &Frontend{
		addr:     addr,
		handlers: make(map[protocol.PacketType]StreamHandler),
		pending:  make(map[string]chan protocol.AckData),
	}
}

// RegisterStreamHandler registers a handler for a data stream.
// Must be called before Start.
func (f *Frontend) RegisterStreamHandler(pt protocol.PacketType, fn StreamHandler) {
	f.handlers[pt] = fn
}

// OnGazeInImage registers a typed handler for the gaze-in-image stream.
func (f *Frontend) OnGazeInImage(fn func(protocol.GazeInImageData)) {
	f.RegisterStreamHandler(protocol.TypeGazeInImage, func(msg *protocol.Message) {
		var data protocol.GazeInImageData
		if err := msg.ParseData(&data); err != nil {
			log.Warn("frontend: bad gaze packet", "err", err)
			return
		}
		fn(data)
	})
}

// Start dials the backend and runs the read loop. connectCb is invoked once
// the backend reports a tracker device attached, or immediately with the
// dial error. Start returns after the connection is up; the read loop runs
// until ctx is cancelled or the socket closes.
func (f *Frontend) Start(ctx context.Context, connectCb func(error)) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	ws, _, err := dialer.DialContext(ctx, f.addr, nil)
	if err != nil {
		err = fmt.Errorf("dial backend %s: %w", f.addr, err)
		if connectCb != nil {
			connectCb(err)
		}
		return err
	}

	f.mu.Lock()
	f.ws = ws
	f.mu.Unlock()

	go f.readLoop(connectCb)

	go func() {
		<-ctx.Done()
		f.Shutdown()
	}()

	return nil
}

// readLoop reads messages until the socket closes, dispatching stream
// packets to handlers and acks to pending requests.
func (f *Frontend) readLoop(connectCb func(error)) {
	for {
		_, data, err := f.ws.ReadMessage()
		if err != nil {
			f.mu.Lock()
			wasClosed := f.closed
			f.connected = false
			f.mu.Unlock()
			if !wasClosed {
				log.Warn("frontend: connection lost", "err", err)
			}
			f.failPending()
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("frontend: unparseable message", "err", err)
			continue
		}

		switch {
		case msg.Type == protocol.TypeConnect:
			var conn protocol.ConnectData
			if err := msg.ParseData(&conn); err != nil {
				log.Warn("frontend: bad connect payload", "err", err)
				continue
			}
			f.mu.Lock()
			f.connected = true
			f.sessionID = conn.SessionID
			f.mu.Unlock()
			log.Info("frontend: tracker connected",
				"device", conn.DeviceName, "session", conn.SessionID)
			if connectCb != nil {
				connectCb(nil)
				connectCb = nil // Fire once
			}

		case msg.Type == protocol.TypeAck:
			var ack protocol.AckData
			if err := msg.ParseData(&ack); err != nil {
				log.Warn("frontend: bad ack payload", "err", err)
				continue
			}
			f.deliverAck(msg.ID, ack)

		case msg.Type.IsStream():
			if fn, ok := f.handlers[msg.Type]; ok {
				fn(msg)
			}
			// No handler registered: drop silently

		default:
			log.Debug("frontend: ignoring message", "type", msg.Type)
		}
	}
}

func (f *Frontend) deliverAck(id string, ack protocol.AckData) {
	f.pendingMu.Lock()
	ch, ok := f.pending[id]
	if ok {
		delete(f.pending, id)
	}
	f.pendingMu.Unlock()

	if ok {
		ch <- ack
	}
}

// failPending unblocks all waiters after the connection drops.
func (f *Frontend) failPending() {
	f.pendingMu.Lock()
	defer f.pendingMu.Unlock()
	for id, ch := range f.pending {
		close(ch)
		delete(f.pending, id)
	}
}

// request sends a control message and waits for its ack.
func (f *Frontend) request(pt protocol.PacketType, payload interface{}) error {
	f.mu.RLock()
	ws := f.ws
	closed := f.closed
	f.mu.RUnlock()

	if ws == nil || closed {
		return ErrNotConnected
	}

	msg, err := protocol.NewMessage(pt, payload)
	if err != nil {
		return err
	}

	ch := make(chan protocol.AckData, 1)
	f.pendingMu.Lock()
	f.pending[msg.ID] = ch
	f.pendingMu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	f.wsMu.Lock()
	err = ws.WriteMessage(websocket.TextMessage, data)
	f.wsMu.Unlock()
	if err != nil {
		f.pendingMu.Lock()
		delete(f.pending, msg.ID)
		f.pendingMu.Unlock()
		return fmt.Errorf("write %s: %w", pt, err)
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if !ack.OK {
			return fmt.Errorf("%s rejected: %s", pt, ack.Error)
		}
		return nil
	case <-time.After(requestTimeout):
		f.pendingMu.Lock()
		delete(f.pending, msg.ID)
		f.pendingMu.Unlock()
		return fmt.Errorf("%s: %w", pt, ErrRequestTimeout)
	}
}

// SetStreamControl sets the delivery rate of a data stream in Hz.
func (f *Frontend) SetStreamControl(pt protocol.PacketType, rateHz float64) error {
	return f.request(protocol.TypeSetStreamControl, protocol.StreamControlRequest{
		Stream: pt,
		RateHz: rateHz,
	})
}

// StartCameraCapture starts the tracker's scene camera.
func (f *Frontend) StartCameraCapture(index int, res protocol.CameraResolution, correctDistortion bool) error {
	return f.request(protocol.TypeStartCameraCapture, protocol.CameraCaptureRequest{
		CameraIndex:       index,
		Resolution:        res,
		CorrectDistortion: correctDistortion,
	})
}

// StopCameraCapture stops the scene camera.
func (f *Frontend) StopCameraCapture() error {
	return f.request(protocol.TypeStopCameraCapture, nil)
}

// StartVideoStream asks the backend to stream scene video to the receiver.
func (f *Frontend) StartVideoStream(host string, port int) error {
	f.mu.Lock()
	f.videoHost, f.videoPort = host, port
	f.mu.Unlock()
	return f.request(protocol.TypeStartVideoStream, protocol.VideoStreamRequest{
		Host: host,
		Port: port,
	})
}

// StopVideoStream stops the video stream to the receiver.
func (f *Frontend) StopVideoStream(host string, port int) error {
	return f.request(protocol.TypeStopVideoStream, protocol.VideoStreamRequest{
		Host: host,
		Port: port,
	})
}

// StartLogSession starts a backend log session. Useful for troubleshooting
// tracking issues after the fact.
func (f *Frontend) StartLogSession(mode protocol.LogMode) error {
	return f.request(protocol.TypeStartLogSession, protocol.LogSessionRequest{Mode: mode})
}

// StopLogSession stops the backend log session.
func (f *Frontend) StopLogSession() error {
	return f.request(protocol.TypeStopLogSession, nil)
}

// Connected reports whether a tracker session is established.
func (f *Frontend) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// SessionID returns the backend session ID, empty until connected.
func (f *Frontend) SessionID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sessionID
}

// Shutdown stops the video stream, camera capture, and log session
// best-effort, then closes the connection. Safe to call more than once.
func (f *Frontend) Shutdown() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	ws := f.ws
	host, port := f.videoHost, f.videoPort
	connected := f.connected
	f.mu.Unlock()

	if ws == nil {
		return
	}

	// Mirror the startup sequence in reverse; ignore errors, the backend
	// may already be gone.
	if connected {
		if host != "" {
			_ = f.sendBestEffort(protocol.TypeStopVideoStream,
				protocol.VideoStreamRequest{Host: host, Port: port})
		}
		_ = f.sendBestEffort(protocol.TypeStopCameraCapture, nil)
		_ = f.sendBestEffort(protocol.TypeStopLogSession, nil)
		_ = f.sendBestEffort(protocol.TypeShutdown, nil)
	}

	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()

	ws.Close()
}

// sendBestEffort fires a control message without waiting for an ack.
func (f *Frontend) sendBestEffort(pt protocol.PacketType, payload interface{}) error {
	msg, err := protocol.NewMessage(pt, payload)
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	f.wsMu.Lock()
	defer f.wsMu.Unlock()
	f.ws.SetWriteDeadline(time.Now().Add(time.Second))
	return f.ws.WriteMessage(websocket.TextMessage, data)
}
