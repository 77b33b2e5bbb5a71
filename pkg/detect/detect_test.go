package detect

import (
	"image"
	"testing"
)

func TestDetection_Centroid(t *testing.T) {
	tests := []struct {
		name string
		det  Detection
		want image.Point
	}{
		{
			name: "centered box",
			det:  Detection{Rect: image.Rect(100, 100, 200, 300)},
			want: image.Pt(150, 200),
		},
		{
			name: "origin box",
			det:  Detection{Rect: image.Rect(0, 0, 10, 10)},
			want: image.Pt(5, 5),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.det.Centroid(); got != tc.want {
				t.Errorf("Centroid: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ModelPath == "" {
		t.Error("DefaultConfig: ModelPath should not be empty")
	}
	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh > 1 {
		t.Errorf("DefaultConfig: ConfidenceThresh should be 0-1, got %f", cfg.ConfidenceThresh)
	}
	if cfg.NMSThresh <= 0 || cfg.NMSThresh > 1 {
		t.Errorf("DefaultConfig: NMSThresh should be 0-1, got %f", cfg.NMSThresh)
	}
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		t.Errorf("DefaultConfig: input size should be positive, got %dx%d",
			cfg.InputWidth, cfg.InputHeight)
	}
}
