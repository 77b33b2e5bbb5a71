// Package overlay draws the gaze marker, tracked-person boxes, and the HUD
// onto scene-camera frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/oculon/gazeguard/pkg/track"
)

// Config holds marker and HUD appearance.
type Config struct {
	MarkerRadius          int // Primary gaze marker radius in pixels
	SecondaryMarkerRadius int // Outer attention ring radius
	MarkerColor           color.RGBA
	SecondaryMarkerColor  color.RGBA

	HUDOrigin    image.Point
	HUDColor     color.RGBA
	HUDScale     float64
	HUDThickness int
}

// DefaultConfig matches the guard demo's appearance: a small green marker
// with a wide blue attention ring.
func DefaultConfig() Config {
	return Config{
		MarkerRadius:          5,
		SecondaryMarkerRadius: 20,
		MarkerColor:           color.RGBA{R: 50, G: 250, B: 0, A: 255},
		SecondaryMarkerColor:  color.RGBA{R: 0, G: 0, B: 250, A: 255},
		HUDOrigin:             image.Pt(50, 50),
		HUDColor:              color.RGBA{R: 255, G: 0, B: 0, A: 255},
		HUDScale:              0.5,
		HUDThickness:          2,
	}
}

// ViewerConfig is the marker-only demo's appearance: a larger marker, no
// person annotations.
func ViewerConfig() Config {
	cfg := DefaultConfig()
	cfg.MarkerRadius = 10
	cfg.SecondaryMarkerRadius = 100
	cfg.HUDScale = 1
	return cfg
}

// Person box colors by seen/close state.
var (
	colorSeen        = color.RGBA{R: 0, G: 255, B: 0, A: 255}   // Green
	colorUnseenClose = color.RGBA{R: 255, G: 0, B: 0, A: 255}   // Red
	colorUnseenFar   = color.RGBA{R: 255, G: 255, B: 0, A: 255} // Yellow
)

// StateColor returns the box color for a person's seen/close state.
func StateColor(seen, close bool) color.RGBA {
	switch {
	case seen:
		return colorSeen
	case close:
		return colorUnseenClose
	default:
		return colorUnseenFar
	}
}

// Renderer draws annotations onto frames.
type Renderer struct {
	cfg Config
}

// NewRenderer creates a renderer.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// DrawGazeMarker draws the primary marker and the attention ring at the
// mapped gaze point. ok is false when there is no valid gaze this frame;
// nothing is drawn then.
func (r *Renderer) DrawGazeMarker(img *gocv.Mat, pt image.Point, ok bool) {
	if !ok {
		return
	}
	gocv.Circle(img, pt, r.cfg.MarkerRadius, r.cfg.MarkerColor, 2)
	gocv.Circle(img, pt, r.cfg.SecondaryMarkerRadius, r.cfg.SecondaryMarkerColor, 2)
}

// DrawHUD writes the raw gaze coordinates in the frame corner. Invalid gaze
// shows placeholder dashes.
func (r *Renderer) DrawHUD(img *gocv.Mat, x, y float64, ok bool) {
	text := "--, --"
	if ok {
		text = fmt.Sprintf("%.0f, %.0f", x, y)
	}
	gocv.PutText(img, text, r.cfg.HUDOrigin, gocv.FontHersheySimplex,
		r.cfg.HUDScale, r.cfg.HUDColor, r.cfg.HUDThickness)
}

// DrawPeople draws each tracked person: ID label, centroid dot, and a box
// colored by seen/close state.
func (r *Renderer) DrawPeople(img *gocv.Mat, people []track.Person, frameHeight int, closeFrac float64) {
	for _, p := range people {
		c := StateColor(p.Seen, p.IsClose(frameHeight, closeFrac))

		gocv.Rectangle(img, p.Rect, c, 2)
		gocv.Circle(img, p.Centroid, 4, c, -1)

		label := fmt.Sprintf("ID %d", p.ID)
		labelOrigin := image.Pt(p.Centroid.X-10, p.Centroid.Y-10)
		gocv.PutText(img, label, labelOrigin, gocv.FontHersheySimplex, 0.5, c, 2)
	}
}
