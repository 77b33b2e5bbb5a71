// Package protocol defines the control-channel message types spoken between
// a gazeguard frontend and the eye-tracker backend service.
// The backend treats the wire format as opaque; this package only models the
// envelope and payloads the frontend needs.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PacketType identifies the type of a control-channel message or data stream.
type PacketType string

const (
	// Data streams (backend → frontend)
	TypeGazeInImage PacketType = "gaze_in_image" // Gaze mapped onto the scene camera frame
	TypeGaze        PacketType = "gaze"          // Raw gaze vector
	TypeEvents      PacketType = "events"        // Blink/saccade events

	// Control requests (frontend → backend)
	TypeConnect            PacketType = "connect"
	TypeSetStreamControl   PacketType = "set_stream_control"
	TypeStartCameraCapture PacketType = "start_camera_capture"
	TypeStopCameraCapture  PacketType = "stop_camera_capture"
	TypeStartVideoStream   PacketType = "start_video_stream"
	TypeStopVideoStream    PacketType = "stop_video_stream"
	TypeStartLogSession    PacketType = "start_log_session"
	TypeStopLogSession     PacketType = "stop_log_session"
	TypeShutdown           PacketType = "shutdown"

	// Responses (backend → frontend)
	TypeAck PacketType = "ack"
)

// Message is the base wrapper for all control-channel messages.
type Message struct {
	Type      PacketType      `json:"type"`
	ID        string          `json:"id,omitempty"` // Request/response correlation
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with a fresh correlation ID and the
// current timestamp.
func NewMessage(msgType PacketType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// NewReply creates a response message correlated to the given request.
func NewReply(req *Message, msgType PacketType, data interface{}) (*Message, error) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		return nil, err
	}
	msg.ID = req.ID
	return msg, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// IsStream reports whether the packet type is a data stream rather than a
// control verb.
func (pt PacketType) IsStream() bool {
	switch pt {
	case TypeGazeInImage, TypeGaze, TypeEvents:
		return true
	}
	return false
}

// =============================================================================
// Control request payloads (frontend → backend)
// =============================================================================

// CameraResolution selects the scene-camera capture resolution.
type CameraResolution int

const (
	ResolutionLow    CameraResolution = iota // 640x360
	ResolutionMedium                         // 1280x720
	ResolutionHigh                           // 1920x1080
)

// Size returns the pixel dimensions for the resolution.
func (r CameraResolution) Size() (width, height int) {
	switch r {
	case ResolutionLow:
		return 640, 360
	case ResolutionHigh:
		return 1920, 1080
	default:
		return 1280, 720
	}
}

// LogMode selects what the backend records in its log session.
type LogMode string

const (
	LogModeNone  LogMode = "none"
	LogModeBasic LogMode = "basic"
)

// StreamControlRequest sets the delivery rate of a data stream.
// A rate of zero disables the stream.
type StreamControlRequest struct {
	Stream PacketType `json:"stream"`
	RateHz float64    `json:"rate_hz"`
}

// CameraCaptureRequest starts the tracker's scene camera.
type CameraCaptureRequest struct {
	CameraIndex       int              `json:"camera_index"`
	Resolution        CameraResolution `json:"resolution"`
	CorrectDistortion bool             `json:"correct_distortion"`
}

// VideoStreamRequest starts or stops the RTP video stream to a receiver.
type VideoStreamRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LogSessionRequest starts a backend log session.
type LogSessionRequest struct {
	Mode LogMode `json:"mode"`
}

// =============================================================================
// Response payloads (backend → frontend)
// =============================================================================

// AckData acknowledges a control request. Error is empty on success.
type AckData struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ConnectData is sent by the backend once a tracker device is attached.
type ConnectData struct {
	SessionID  string `json:"session_id"`
	DeviceName string `json:"device_name,omitempty"`
	APIVersion string `json:"api_version,omitempty"`
}
