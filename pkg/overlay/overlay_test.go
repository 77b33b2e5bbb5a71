package overlay

import (
	"testing"
)

func TestStateColor(t *testing.T) {
	tests := []struct {
		name        string
		seen, close bool
		wantR       uint8
		wantG       uint8
	}{
		{name: "seen is green", seen: true, close: false, wantR: 0, wantG: 255},
		{name: "seen and close still green", seen: true, close: true, wantR: 0, wantG: 255},
		{name: "unseen close is red", seen: false, close: true, wantR: 255, wantG: 0},
		{name: "unseen far is yellow", seen: false, close: false, wantR: 255, wantG: 255},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := StateColor(tc.seen, tc.close)
			if c.R != tc.wantR || c.G != tc.wantG {
				t.Errorf("StateColor(%v,%v): got R=%d G=%d, want R=%d G=%d",
					tc.seen, tc.close, c.R, c.G, tc.wantR, tc.wantG)
			}
		})
	}
}

func TestConfigs(t *testing.T) {
	def := DefaultConfig()
	if def.MarkerRadius >= def.SecondaryMarkerRadius {
		t.Error("DefaultConfig: secondary ring should be larger than the marker")
	}

	viewer := ViewerConfig()
	if viewer.MarkerRadius <= def.MarkerRadius {
		t.Error("ViewerConfig: marker-only mode uses a larger marker")
	}
}
