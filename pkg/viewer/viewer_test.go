package viewer

import (
	"image"
	"testing"

	"github.com/oculon/gazeguard/pkg/detect"
)

func TestScaleDetections(t *testing.T) {
	dets := []detect.Detection{
		{Rect: image.Rect(100, 200, 300, 600), Confidence: 0.9},
		{Rect: image.Rect(0, 0, 1280, 720), Confidence: 0.5},
	}

	scaled := scaleDetections(dets, 1280, 640)

	want := []image.Rectangle{
		image.Rect(50, 100, 150, 300),
		image.Rect(0, 0, 640, 360),
	}
	for i, w := range want {
		if scaled[i].Rect != w {
			t.Errorf("detection %d: got %v, want %v", i, scaled[i].Rect, w)
		}
		if scaled[i].Confidence != dets[i].Confidence {
			t.Errorf("detection %d: confidence changed", i)
		}
	}
}

func TestScaleDetections_SameWidthNoCopy(t *testing.T) {
	dets := []detect.Detection{{Rect: image.Rect(1, 2, 3, 4)}}
	scaled := scaleDetections(dets, 640, 640)
	if scaled[0].Rect != dets[0].Rect {
		t.Errorf("same width should pass detections through unchanged")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GazeRateHz != 125 {
		t.Errorf("GazeRateHz: got %v, want 125", cfg.GazeRateHz)
	}
	if cfg.CameraIndex != 1 {
		t.Errorf("CameraIndex: got %d, want 1", cfg.CameraIndex)
	}
	if cfg.DetectStride <= 0 {
		t.Error("DetectStride must be positive")
	}
}
