// Package video receives the scene-camera stream from the eye-tracker
// backend. Frames arrive as JPEG images packetized over RTP/UDP; the
// receiver reassembles packets into frames and hands them to a callback.
package video

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"

	"github.com/oculon/gazeguard/internal/log"
)

// PayloadTypeJPEG is the RTP payload type the backend uses for JPEG frames.
const PayloadTypeJPEG = 26

// maxDatagram is the largest UDP datagram the receiver accepts.
const maxDatagram = 65507

// Frame is one complete scene-camera frame.
type Frame struct {
	Index     uint64 // Monotonic frame counter, starts at 1
	Timestamp uint32 // RTP timestamp of the frame
	JPEG      []byte
}

// FrameHandler receives completed frames. It runs on the receive goroutine
// and must not retain the JPEG slice beyond the call unless it copies it.
type FrameHandler func(Frame)

// Stats counts receiver activity.
type Stats struct {
	Packets        uint64 // RTP packets received
	Frames         uint64 // Complete frames delivered
	PartialDropped uint64 // Frames abandoned due to loss or reordering
}

// Receiver reassembles RTP/JPEG packets from a UDP socket into frames.
type Receiver struct {
	port    int
	conn    *net.UDPConn
	handler FrameHandler

	// Reassembly state, touched only by the receive goroutine.
	curTimestamp uint32
	curBuf       []byte
	lastSeq      uint16
	haveSeq      bool
	damaged      bool
	frameCount   uint64

	// Latest complete frame cache.
	latestMu sync.RWMutex
	latest   []byte

	statsMu sync.Mutex
	stats   Stats

	closeOnce sync.Once
	closed    chan struct{}
}

// NewReceiver creates a receiver that will bind the given UDP port.
// Port 0 picks an ephemeral port; see Addr after Start.
func NewReceiver(port int) *Receiver {
	return &Receiver{
		port:   port,
		closed: make(chan struct{}),
	}
}

// SetFrameHandler registers the frame callback. Must be called before Start.
func (r *Receiver) SetFrameHandler(fn FrameHandler) {
	r.handler = fn
}

// Start binds the UDP socket and launches the receive loop.
func (r *Receiver) Start() error {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: r.port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind video port %d: %w", r.port, err)
	}
	r.conn = conn

	go r.receiveLoop()

	log.Info("video: receiver listening", "addr", conn.LocalAddr().String())
	return nil
}

// Addr returns the host and port the backend should stream to.
func (r *Receiver) Addr() (string, int) {
	if r.conn == nil {
		return "127.0.0.1", r.port
	}
	port := r.conn.LocalAddr().(*net.UDPAddr).Port
	return "127.0.0.1", port
}

func (r *Receiver) receiveLoop() {
	buf := make([]byte, maxDatagram)

	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.closed:
			default:
				log.Warn("video: read error", "err", err)
			}
			return
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			log.Debug("video: bad RTP packet", "err", err)
			continue
		}
		if pkt.PayloadType != PayloadTypeJPEG {
			continue
		}

		r.statsMu.Lock()
		r.stats.Packets++
		r.statsMu.Unlock()

		r.ingest(&pkt)
	}
}

// ingest appends a packet to the current frame, dropping stale partials when
// a newer frame begins and loss-damaged frames at the marker.
func (r *Receiver) ingest(pkt *rtp.Packet) {
	if len(r.curBuf) > 0 && pkt.Timestamp != r.curTimestamp {
		// A new frame started before the old one completed.
		r.dropPartial()
	}

	if len(r.curBuf) == 0 {
		// First fragment of a frame resets reassembly state.
		r.curTimestamp = pkt.Timestamp
		r.damaged = false
		r.haveSeq = false
	}

	// A sequence gap inside a frame means lost fragments; the JPEG would
	// be corrupt, so discard the frame at its marker.
	if r.haveSeq && pkt.SequenceNumber != r.lastSeq+1 {
		r.damaged = true
	}
	r.lastSeq = pkt.SequenceNumber
	r.haveSeq = true

	r.curBuf = append(r.curBuf, pkt.Payload...)

	if pkt.Marker {
		if r.damaged {
			r.dropPartial()
			return
		}
		r.completeFrame()
	}
}

func (r *Receiver) dropPartial() {
	r.curBuf = nil
	r.statsMu.Lock()
	r.stats.PartialDropped++
	r.statsMu.Unlock()
}

func (r *Receiver) completeFrame() {
	if len(r.curBuf) == 0 {
		return
	}

	jpeg := make([]byte, len(r.curBuf))
	copy(jpeg, r.curBuf)
	r.curBuf = r.curBuf[:0]

	r.frameCount++
	frame := Frame{
		Index:     r.frameCount,
		Timestamp: r.curTimestamp,
		JPEG:      jpeg,
	}

	r.latestMu.Lock()
	r.latest = jpeg
	r.latestMu.Unlock()

	r.statsMu.Lock()
	r.stats.Frames++
	r.statsMu.Unlock()

	if r.handler != nil {
		r.handler(frame)
	}
}

// LatestJPEG returns a copy of the most recent complete frame, or nil if no
// frame has arrived yet.
func (r *Receiver) LatestJPEG() []byte {
	r.latestMu.RLock()
	defer r.latestMu.RUnlock()

	if r.latest == nil {
		return nil
	}
	frame := make([]byte, len(r.latest))
	copy(frame, r.latest)
	return frame
}

// WaitForFrame polls until a frame is available or the timeout expires.
func (r *Receiver) WaitForFrame(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if frame := r.LatestJPEG(); frame != nil {
			return frame, nil
		}
		time.Sleep(20 * time.Millisecond)
	}

	return nil, fmt.Errorf("timeout waiting for frame")
}

// Stats returns a snapshot of receiver counters.
func (r *Receiver) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// Close stops the receive loop and releases the socket.
func (r *Receiver) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
		if r.conn != nil {
			r.conn.Close()
		}
	})
}
