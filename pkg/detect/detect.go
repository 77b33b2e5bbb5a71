// Package detect finds pedestrians in scene-camera frames using a
// pretrained YOLOv8 model through OpenCV's DNN module.
package detect

import (
	"image"
)

// Detection is one detected person in source-image pixel coordinates.
type Detection struct {
	Rect       image.Rectangle
	Confidence float32
}

// Centroid returns the center point of the bounding box.
func (d Detection) Centroid() image.Point {
	return image.Pt(
		(d.Rect.Min.X+d.Rect.Max.X)/2,
		(d.Rect.Min.Y+d.Rect.Max.Y)/2,
	)
}

// Detector is the interface for pedestrian detection backends.
type Detector interface {
	// Detect finds people in the BGR image referenced by jpeg bytes.
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	ModelPath        string  // Path to the ONNX model
	ModelURL         string  // Download source when ModelPath is missing
	ConfidenceThresh float32 // Minimum confidence (default 0.5)
	NMSThresh        float32 // Non-maximum suppression threshold
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YOLOv8n.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ModelURL:         "https://github.com/ultralytics/assets/releases/download/v8.3.0/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}
