// Package export rasterizes design previews and wraps them into PDF documents.
package export

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"io/fs"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"designmate/internal/scene"
)

const (
	// PixelsPerMeter is the scale of the top-down 3D room plan.
	PixelsPerMeter = 60.0
	planMargin     = 20.0
	// modelFootprint is the floor size in meters of a model at scale 1.
	modelFootprint = 2.0
	gridColor      = "#e6e6e6"
	canvasColor    = "#ffffff"
	// MaxSide bounds both canvas and sprite sides in pixels.
	MaxSide = 4096
)

var ErrTooLarge = errors.New("preview too large")

// canvasSize rounds w x h to pixels, rejecting empty, non-finite and oversized canvases.
func canvasSize(w, h float64) (int, int, error) {
	if !(w >= 1 && h >= 1) {
		return 0, 0, fmt.Errorf("invalid size %vx%v", w, h)
	}
	if w > MaxSide || h > MaxSide {
		return 0, 0, fmt.Errorf("%w: %vx%v exceeds %d px", ErrTooLarge, w, h, MaxSide)
	}
	return int(math.Round(w)), int(math.Round(h)), nil
}

// ============================================================
// Renderer
// ============================================================

// Renderer draws previews using sprite images from an asset tree.
// Asset paths are the catalog paths without the leading slash.
type Renderer struct {
	assets fs.FS
}

func NewRenderer(assets fs.FS) *Renderer {
	return &Renderer{assets: assets}
}

// Preview2D is everything needed to draw a floor plan.
type Preview2D struct {
	Objects    []scene.PlacedObject
	Plan       scene.Plan
	Background image.Image // optional
}

// Preview3D is everything needed to draw a room from above.
type Preview3D struct {
	Models []scene.PlacedModel
	Room   scene.Room
}

// Render2D draws the plan at its pixel size: background cover-fitted,
// grid when there is no background, then sprites in stacking order.
func (r *Renderer) Render2D(p Preview2D) (image.Image, error) {
	w, h := p.Plan.PixelSize()
	iw, ih, err := canvasSize(w, h)
	if err != nil {
		return nil, fmt.Errorf("render 2d: %w", err)
	}

	dc := gg.NewContext(iw, ih)
	dc.SetHexColor(canvasColor)
	dc.Clear()

	if p.Background != nil {
		dc.DrawImage(imaging.Fill(p.Background, iw, ih, imaging.Center, imaging.Lanczos), 0, 0)
	} else {
		drawGrid(dc, w, h, scene.GridUnit)
	}

	for _, o := range p.Objects {
		if err := r.drawSprite(dc, o); err != nil {
			return nil, fmt.Errorf("render 2d: object %s: %w", o.ID, err)
		}
	}
	return dc.Image(), nil
}

// drawSprite projects the CSS-style rotateX/rotateY (degrees) onto the plane:
// the sprite shrinks by |cos| and is mirrored when the cosine is negative.
func (r *Renderer) drawSprite(dc *gg.Context, o scene.PlacedObject) error {
	cy := math.Cos(o.RotateY * math.Pi / 180)
	cx := math.Cos(o.RotateX * math.Pi / 180)
	fw, fh := o.Width*math.Abs(cy), o.Height*math.Abs(cx)
	if fw > MaxSide || fh > MaxSide {
		return fmt.Errorf("%w: sprite %vx%v exceeds %d px", ErrTooLarge, fw, fh, MaxSide)
	}
	if !(fw >= 0.5 && fh >= 0.5) || math.IsNaN(o.X) || math.IsNaN(o.Y) {
		return nil
	}
	w, h := int(math.Round(fw)), int(math.Round(fh))
	x := o.X + (o.Width-float64(w))/2
	y := o.Y + (o.Height-float64(h))/2

	img, err := r.sprite(o.Image)
	if err != nil {
		dc.SetHexColor(Placeholder(o.Type))
		dc.DrawRectangle(x, y, float64(w), float64(h))
		dc.Fill()
		return nil
	}

	img = imaging.Resize(img, w, h, imaging.Lanczos)
	if cy < 0 {
		img = imaging.FlipH(img)
	}
	if cx < 0 {
		img = imaging.FlipV(img)
	}
	dc.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
	return nil
}

func (r *Renderer) sprite(path string) (image.Image, error) {
	if r.assets == nil || path == "" {
		return nil, fs.ErrNotExist
	}
	f, err := r.assets.Open(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imaging.Decode(f)
}

// Render3D draws the room from above: floor, walls as a border and one
// rotated footprint per model, labelled with its name.
func (r *Renderer) Render3D(p Preview3D) (image.Image, error) {
	room := p.Room
	if !(room.Width > 0 && room.Length > 0) {
		return nil, fmt.Errorf("render 3d: invalid room size %vx%v", room.Width, room.Length)
	}
	fw, fl := room.Width*PixelsPerMeter, room.Length*PixelsPerMeter
	iw, ih, err := canvasSize(math.Ceil(fw+2*planMargin), math.Ceil(fl+2*planMargin))
	if err != nil {
		return nil, fmt.Errorf("render 3d: %w", err)
	}
	dc := gg.NewContext(iw, ih)
	dc.SetHexColor(canvasColor)
	dc.Clear()

	dc.SetHexColor(room.FloorColor)
	dc.DrawRectangle(planMargin, planMargin, fw, fl)
	dc.Fill()

	dc.SetHexColor(wallOutline(room.WallColor))
	dc.SetLineWidth(6)
	dc.DrawRectangle(planMargin, planMargin, fw, fl)
	dc.Stroke()

	toPixel := func(x, z float64) (float64, float64) {
		return planMargin + (x+room.Width/2)*PixelsPerMeter, planMargin + (z+room.Length/2)*PixelsPerMeter
	}

	for _, m := range p.Models {
		px, pz := toPixel(m.Position.X(), m.Position.Z())
		w := modelFootprint * math.Abs(m.Scale.X()) * PixelsPerMeter
		d := modelFootprint * math.Abs(m.Scale.Z()) * PixelsPerMeter

		dc.Push()
		dc.RotateAbout(-m.Rotation.Y(), px, pz)
		dc.SetHexColor(Placeholder(m.Name))
		dc.DrawRectangle(px-w/2, pz-d/2, w, d)
		dc.Fill()
		dc.Pop()

		dc.SetHexColor("#333333")
		dc.DrawStringAnchored(m.Name, px, pz, 0.5, 0.5)
	}
	return dc.Image(), nil
}

func drawGrid(dc *gg.Context, w, h, unit float64) {
	dc.SetHexColor(gridColor)
	dc.SetLineWidth(1)
	for x := unit; x < w; x += unit {
		dc.DrawLine(x, 0, x, h)
	}
	for y := unit; y < h; y += unit {
		dc.DrawLine(0, y, w, y)
	}
	dc.Stroke()
}

// wallOutline darkens very light wall colors so the border stays visible on white.
func wallOutline(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#999999"
	}
	l, a, b := c.Lab()
	if l > 0.8 {
		l = 0.6
	}
	return colorful.Lab(l, a, b).Clamped().Hex()
}

// Placeholder returns a stable color for a key, spread around the hue wheel
// by the golden ratio.
func Placeholder(key string) string {
	const goldenRatio = 0.618033988749895
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	hue := float64(h.Sum32()%1024) * goldenRatio
	hue -= math.Floor(hue)
	return colorful.Hsl(hue*360, 0.55, 0.6).Hex()
}
