package protocol

import (
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(TypeSetStreamControl, StreamControlRequest{
		Stream: TypeGazeInImage,
		RateHz: 125,
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.ID == "" {
		t.Error("NewMessage: expected a correlation ID")
	}

	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if parsed.Type != TypeSetStreamControl {
		t.Errorf("Type: got %s, want %s", parsed.Type, TypeSetStreamControl)
	}
	if parsed.ID != msg.ID {
		t.Errorf("ID: got %s, want %s", parsed.ID, msg.ID)
	}

	var req StreamControlRequest
	if err := parsed.ParseData(&req); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if req.Stream != TypeGazeInImage || req.RateHz != 125 {
		t.Errorf("payload: got %+v", req)
	}
}

func TestNewReplyKeepsCorrelationID(t *testing.T) {
	req, err := NewMessage(TypeStartCameraCapture, CameraCaptureRequest{CameraIndex: 1})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}

	reply, err := NewReply(req, TypeAck, AckData{OK: true})
	if err != nil {
		t.Fatalf("NewReply: %v", err)
	}
	if reply.ID != req.ID {
		t.Errorf("reply ID: got %s, want %s", reply.ID, req.ID)
	}
	if reply.Type != TypeAck {
		t.Errorf("reply type: got %s, want ack", reply.Type)
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("ParseMessage: expected error for invalid JSON")
	}
}

func TestPacketTypeIsStream(t *testing.T) {
	tests := []struct {
		pt     PacketType
		stream bool
	}{
		{TypeGazeInImage, true},
		{TypeGaze, true},
		{TypeEvents, true},
		{TypeAck, false},
		{TypeStartVideoStream, false},
	}

	for _, tc := range tests {
		if got := tc.pt.IsStream(); got != tc.stream {
			t.Errorf("IsStream(%s): got %v, want %v", tc.pt, got, tc.stream)
		}
	}
}

func TestCameraResolutionSize(t *testing.T) {
	tests := []struct {
		res  CameraResolution
		w, h int
	}{
		{ResolutionLow, 640, 360},
		{ResolutionMedium, 1280, 720},
		{ResolutionHigh, 1920, 1080},
	}

	for _, tc := range tests {
		w, h := tc.res.Size()
		if w != tc.w || h != tc.h {
			t.Errorf("Size(%d): got %dx%d, want %dx%d", tc.res, w, h, tc.w, tc.h)
		}
	}
}
