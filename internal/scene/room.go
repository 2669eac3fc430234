package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultRoomWidth  = 8.0
	DefaultRoomLength = 8.0
	DefaultRoomHeight = 3.0
	DefaultWallColor  = "#f5f5f5"
	DefaultFloorColor = "#e0cda9"

	// 2D rooms are measured in feet, one foot is GridUnit pixels.
	DefaultPlanWidthFt  = 30.0
	DefaultPlanHeightFt = 20.0
	GridUnit            = 20.0

	// Editor limits; larger stored values are clamped on read.
	MaxRoomWidth    = 20.0
	MaxRoomLength   = 20.0
	MaxRoomHeight   = 6.0
	MaxPlanWidthFt  = 100.0
	MaxPlanHeightFt = 100.0
)

var ErrRoomTooLarge = errors.New("room dimensions out of range")

// RoomMeta carries the optional room settings of a design.
// Nil fields mean "not stored".
type RoomMeta struct {
	RoomWidth  *float64 `json:"roomWidth,omitempty"`
	RoomLength *float64 `json:"roomLength,omitempty"`
	RoomHeight *float64 `json:"roomHeight,omitempty"`
	WallColor  string   `json:"wallColor,omitempty"`
	FloorColor string   `json:"floorColor,omitempty"`
}

// Room is a fully populated 3D room.
type Room struct {
	Width      float64
	Length     float64
	Height     float64
	WallColor  string
	FloorColor string
}

// Plan is a fully populated 2D room, in feet.
type Plan struct {
	WidthFt  float64
	HeightFt float64
}

func (p Plan) PixelSize() (w, h float64) {
	return p.WidthFt * GridUnit, p.HeightFt * GridUnit
}

// Room3D fills missing or non-positive dimensions and invalid colors with defaults
// and clamps oversized dimensions to the editor limits.
func (m RoomMeta) Room3D() Room {
	return Room{
		Width:      boundedOr(m.RoomWidth, DefaultRoomWidth, MaxRoomWidth),
		Length:     boundedOr(m.RoomLength, DefaultRoomLength, MaxRoomLength),
		Height:     boundedOr(m.RoomHeight, DefaultRoomHeight, MaxRoomHeight),
		WallColor:  NormalizeColor(m.WallColor, DefaultWallColor),
		FloorColor: NormalizeColor(m.FloorColor, DefaultFloorColor),
	}
}

// Plan2D reads roomWidth/roomHeight as feet.
func (m RoomMeta) Plan2D() Plan {
	return Plan{
		WidthFt:  boundedOr(m.RoomWidth, DefaultPlanWidthFt, MaxPlanWidthFt),
		HeightFt: boundedOr(m.RoomHeight, DefaultPlanHeightFt, MaxPlanHeightFt),
	}
}

// Check rejects dimensions above the editor limits of the given mode.
func (m RoomMeta) Check(mode Mode) error {
	type limit struct {
		name string
		v    *float64
		max  float64
	}
	var limits []limit
	if mode == Mode2D {
		limits = []limit{
			{"roomWidth", m.RoomWidth, MaxPlanWidthFt},
			{"roomHeight", m.RoomHeight, MaxPlanHeightFt},
		}
	} else {
		limits = []limit{
			{"roomWidth", m.RoomWidth, MaxRoomWidth},
			{"roomLength", m.RoomLength, MaxRoomLength},
			{"roomHeight", m.RoomHeight, MaxRoomHeight},
		}
	}
	for _, l := range limits {
		if l.v != nil && (*l.v > l.max || math.IsNaN(*l.v)) {
			return fmt.Errorf("%w: %s must be at most %v", ErrRoomTooLarge, l.name, l.max)
		}
	}
	return nil
}

func MetaFromRoom(r Room) RoomMeta {
	return RoomMeta{
		RoomWidth:  &r.Width,
		RoomLength: &r.Length,
		RoomHeight: &r.Height,
		WallColor:  r.WallColor,
		FloorColor: r.FloorColor,
	}
}

func MetaFromPlan(p Plan) RoomMeta {
	return RoomMeta{RoomWidth: &p.WidthFt, RoomHeight: &p.HeightFt}
}

// NormalizeColor returns s as a lower-case #rrggbb, or fallback if s is not a hex color.
func NormalizeColor(s, fallback string) string {
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	return c.Hex()
}

func boundedOr(v *float64, fallback, max float64) float64 {
	switch {
	case v == nil || *v <= 0 || math.IsNaN(*v):
		return fallback
	case *v > max:
		return max
	}
	return *v
}
