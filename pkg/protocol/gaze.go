package protocol

import (
	"encoding/json"
	"math"
)

// GazeInImageData reports where the user is looking on the current scene
// camera frame, in scene-camera pixel coordinates. When the tracker has no
// estimate (blink, lost pupil) both coordinates are NaN, which travels as
// JSON null.
type GazeInImageData struct {
	Timestamp float64 // Tracker time in seconds
	X         float64 // Gaze x in scene-camera pixels
	Y         float64 // Gaze y in scene-camera pixels
}

// Valid reports whether the sample carries a usable gaze estimate.
func (g GazeInImageData) Valid() bool {
	return !math.IsNaN(g.X) && !math.IsNaN(g.Y)
}

type gazeInImageJSON struct {
	Timestamp float64  `json:"ts"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

// MarshalJSON encodes NaN coordinates as null.
func (g GazeInImageData) MarshalJSON() ([]byte, error) {
	out := gazeInImageJSON{Timestamp: g.Timestamp}
	if !math.IsNaN(g.X) {
		x := g.X
		out.X = &x
	}
	if !math.IsNaN(g.Y) {
		y := g.Y
		out.Y = &y
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes null coordinates as NaN.
func (g *GazeInImageData) UnmarshalJSON(data []byte) error {
	var in gazeInImageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	g.Timestamp = in.Timestamp
	g.X = math.NaN()
	g.Y = math.NaN()
	if in.X != nil {
		g.X = *in.X
	}
	if in.Y != nil {
		g.Y = *in.Y
	}
	return nil
}
