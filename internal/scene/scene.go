// Package scene defines the placed-object model shared by the editors,
// the API client and the exporter.
package scene

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Mode is the dimensionality of a design.
type Mode string

const (
	Mode2D Mode = "2D"
	Mode3D Mode = "3D"
)

func (m Mode) Valid() bool {
	return m == Mode2D || m == Mode3D
}

// Format tags how an asset is rendered.
type Format int

const (
	FormatSprite Format = iota + 1
	FormatGLB
	FormatOBJ
)

func (f Format) String() string {
	switch f {
	case FormatSprite:
		return "sprite"
	case FormatGLB:
		return "glb"
	case FormatOBJ:
		return "obj"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatForPath derives the format from an asset path's extension.
func FormatForPath(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return FormatSprite, nil
	case ".glb", ".gltf":
		return FormatGLB, nil
	case ".obj":
		return FormatOBJ, nil
	}
	return 0, fmt.Errorf("unsupported asset: %s", p)
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case FormatSprite, FormatGLB, FormatOBJ:
		return []byte(f.String()), nil
	}
	return nil, fmt.Errorf("invalid format: %d", int(f))
}

func (f *Format) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sprite":
		*f = FormatSprite
	case "glb":
		*f = FormatGLB
	case "obj":
		*f = FormatOBJ
	default:
		return fmt.Errorf("invalid format: %q", b)
	}
	return nil
}

// ============================================================
// 2D
// ============================================================

// PlacedObject is one furniture sprite on a 2D floor plan.
// Position and size are in pixels; rotations are in degrees.
type PlacedObject struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Image   string  `json:"image"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	RotateX float64 `json:"rotateX"`
	RotateY float64 `json:"rotateY"`
}

// ============================================================
// 3D
// ============================================================

type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// PlacedModel is one furniture model in a 3D room.
// Rotation is in radians.
type PlacedModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     Format `json:"type"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Scale    Vec3   `json:"scale"`
}

// Pose is the transform a gizmo writes back into a model.
type Pose struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

func (m PlacedModel) Pose() Pose {
	return Pose{Position: m.Position, Rotation: m.Rotation, Scale: m.Scale}
}

// ============================================================
// Payload
// ============================================================

// Decode2D parses a serialized 2D object collection.
func Decode2D(raw json.RawMessage) ([]PlacedObject, error) {
	var objs []PlacedObject
	if len(raw) == 0 {
		return objs, nil
	}
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("decode 2D objects: %w", err)
	}
	return objs, nil
}

// Decode3D parses a serialized 3D model collection.
// A missing format tag is derived from the model path.
func Decode3D(raw json.RawMessage) ([]PlacedModel, error) {
	var items []struct {
		PlacedModel
		Type string `json:"type"`
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode 3D objects: %w", err)
	}
	models := make([]PlacedModel, 0, len(items))
	for _, it := range items {
		m := it.PlacedModel
		if it.Type == "" {
			f, err := FormatForPath(m.Path)
			if err != nil {
				return nil, err
			}
			m.Type = f
		} else if err := m.Type.UnmarshalText([]byte(it.Type)); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}
