package frontend

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oculon/gazeguard/pkg/protocol"
)

// fakeBackend is a minimal in-process backend: it announces a connected
// tracker, acks every control request, and can push stream packets.
type fakeBackend struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	conn   *websocket.Conn
	seen   []protocol.PacketType
	reject protocol.PacketType // Requests of this type are nacked
}

func newFakeBackend(t *testing.T) *fakeBackend {
	fb := &fakeBackend{t: t}
	upgrader := websocket.Upgrader{}

	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fb.mu.Lock()
		fb.conn = conn
		fb.mu.Unlock()

		connectMsg, _ := protocol.NewMessage(protocol.TypeConnect, protocol.ConnectData{
			SessionID:  "sess-1",
			DeviceName: "test-tracker",
		})
		fb.write(connectMsg)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(data)
			if err != nil {
				continue
			}

			fb.mu.Lock()
			fb.seen = append(fb.seen, msg.Type)
			reject := fb.reject
			fb.mu.Unlock()

			ack := protocol.AckData{OK: true}
			if msg.Type == reject {
				ack = protocol.AckData{OK: false, Error: "camera busy"}
			}
			reply, _ := protocol.NewReply(msg, protocol.TypeAck, ack)
			fb.write(reply)
		}
	}))

	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) url() string {
	return "ws" + strings.TrimPrefix(fb.srv.URL, "http")
}

func (fb *fakeBackend) write(msg *protocol.Message) {
	data, _ := msg.Bytes()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.conn != nil {
		fb.conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (fb *fakeBackend) pushGaze(x, y float64) {
	msg, _ := protocol.NewMessage(protocol.TypeGazeInImage, protocol.GazeInImageData{
		Timestamp: 1.0,
		X:         x,
		Y:         y,
	})
	fb.write(msg)
}

func (fb *fakeBackend) sawRequest(pt protocol.PacketType) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, s := range fb.seen {
		if s == pt {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestFrontend_ConnectAndControl(t *testing.T) {
	fb := newFakeBackend(t)
	f := New(fb.url())

	connectErr := make(chan error, 1)
	if err := f.Start(context.Background(), func(err error) {
		connectErr <- err
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Shutdown()

	select {
	case err := <-connectErr:
		if err != nil {
			t.Fatalf("connect callback: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect callback never fired")
	}

	if !f.Connected() {
		t.Error("Connected: expected true after connect")
	}
	if f.SessionID() != "sess-1" {
		t.Errorf("SessionID: got %q, want sess-1", f.SessionID())
	}

	if err := f.SetStreamControl(protocol.TypeGazeInImage, 125); err != nil {
		t.Errorf("SetStreamControl: %v", err)
	}
	if err := f.StartCameraCapture(1, protocol.ResolutionMedium, false); err != nil {
		t.Errorf("StartCameraCapture: %v", err)
	}
	if err := f.StartVideoStream("127.0.0.1", 11033); err != nil {
		t.Errorf("StartVideoStream: %v", err)
	}
	if err := f.StartLogSession(protocol.LogModeBasic); err != nil {
		t.Errorf("StartLogSession: %v", err)
	}

	if !fb.sawRequest(protocol.TypeSetStreamControl) {
		t.Error("backend never saw set_stream_control")
	}
}

func TestFrontend_RejectedRequest(t *testing.T) {
	fb := newFakeBackend(t)
	fb.reject = protocol.TypeStartCameraCapture

	f := New(fb.url())
	connected := make(chan struct{})
	if err := f.Start(context.Background(), func(err error) {
		if err == nil {
			close(connected)
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Shutdown()

	<-connected

	err := f.StartCameraCapture(1, protocol.ResolutionMedium, false)
	if err == nil {
		t.Fatal("StartCameraCapture: expected rejection error")
	}
	if !strings.Contains(err.Error(), "camera busy") {
		t.Errorf("error should carry backend reason, got: %v", err)
	}
}

func TestFrontend_StreamDispatch(t *testing.T) {
	fb := newFakeBackend(t)
	f := New(fb.url())

	var mu sync.Mutex
	var got []protocol.GazeInImageData
	f.OnGazeInImage(func(g protocol.GazeInImageData) {
		mu.Lock()
		got = append(got, g)
		mu.Unlock()
	})

	connected := make(chan struct{})
	if err := f.Start(context.Background(), func(err error) {
		if err == nil {
			close(connected)
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Shutdown()

	<-connected

	fb.pushGaze(512, 300)
	fb.pushGaze(math.NaN(), math.NaN())

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0].X != 512 || got[0].Y != 300 {
		t.Errorf("first sample: got %+v", got[0])
	}
	if got[1].Valid() {
		t.Errorf("second sample should be invalid (NaN), got %+v", got[1])
	}
}

func TestFrontend_UnregisteredStreamDropped(t *testing.T) {
	fb := newFakeBackend(t)
	f := New(fb.url())

	connected := make(chan struct{})
	if err := f.Start(context.Background(), func(err error) {
		if err == nil {
			close(connected)
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Shutdown()

	<-connected

	// No handler registered: pushing a gaze packet must not break the
	// connection or subsequent requests.
	fb.pushGaze(10, 10)

	if err := f.SetStreamControl(protocol.TypeGazeInImage, 60); err != nil {
		t.Errorf("SetStreamControl after unhandled packet: %v", err)
	}
}

func TestFrontend_DialError(t *testing.T) {
	f := New("ws://127.0.0.1:1/api")

	called := make(chan error, 1)
	err := f.Start(context.Background(), func(err error) {
		called <- err
	})
	if err == nil {
		t.Fatal("Start: expected dial error")
	}

	select {
	case cbErr := <-called:
		if cbErr == nil {
			t.Error("connect callback should receive the dial error")
		}
	case <-time.After(time.Second):
		t.Fatal("connect callback never fired on dial error")
	}
}

func TestFrontend_ShutdownIdempotent(t *testing.T) {
	fb := newFakeBackend(t)
	f := New(fb.url())

	connected := make(chan struct{})
	if err := f.Start(context.Background(), func(err error) {
		if err == nil {
			close(connected)
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-connected

	if err := f.StartVideoStream("127.0.0.1", 11033); err != nil {
		t.Fatalf("StartVideoStream: %v", err)
	}

	f.Shutdown()
	f.Shutdown() // Second call must be a no-op

	if f.Connected() {
		t.Error("Connected: expected false after Shutdown")
	}
	if err := f.StopCameraCapture(); err == nil {
		t.Error("requests after Shutdown should fail")
	}
}
