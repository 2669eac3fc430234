// Package catalog is the fixed furniture catalog: 2D sprites for floor plans
// and 3D models for rooms, keyed by the type/name stored in designs.
package catalog

import (
	"fmt"
	"sort"

	"designmate/internal/scene"
)

type Sprite struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	Image string `json:"image"`
	Price int    `json:"price"` // rupees, 0 when not sold
}

type Model struct {
	Name   string       `json:"name"`
	Path   string       `json:"path"`
	Format scene.Format `json:"format"`
}

var sprites = []Sprite{
	{"Double Bed Black", "D-Bed-Black", "/assets/2d/Bed/D-Bed-Black.png", 45000},
	{"Double Bed Brown", "D-Bed-Brown", "/assets/2d/Bed/D-Bed-Brown.png", 46000},
	{"Double Bed White", "D-Bed-White", "/assets/2d/Bed/D-Bed-White.png", 47000},
	{"Single Bed Black", "S-Bed-Black", "/assets/2d/Bed/S-Bed-Black.png", 30000},
	{"Single Bed Brown", "S-Bed-Brown", "/assets/2d/Bed/S-Bed-Brown.png", 31000},
	{"Single Bed White", "S-Bed-White", "/assets/2d/Bed/S-Bed-White.png", 32000},

	{"Sofa Black", "Sofa-Black", "/assets/2d/Sofa/Sofa-Black.png", 55000},
	{"Sofa Brown", "Sofa-Brown", "/assets/2d/Sofa/Sofa-Brown.png", 56000},
	{"Sofa White", "Sofa-White", "/assets/2d/Sofa/Sofa-White.png", 57000},
	{"Sofa Yellow", "Sofa-Yellow", "/assets/2d/Sofa/Sofa-Yellow.png", 58000},

	{"Table Brown", "Table-Brown", "/assets/2d/Table/Table-Brown.png", 25000},
	{"Table Dark Brown", "Table-DBrown", "/assets/2d/Table/Table-DBrown.png", 26000},
	{"Table White", "Table-White", "/assets/2d/Table/Table-White.png", 27000},
}

var modelPaths = map[string]string{
	"Bookrack":    "/models/Bookrack.glb",
	"Chair1":      "/models/Chair1.glb",
	"Chair2":      "/models/Chair2.glb",
	"Coffeetable": "/models/coffeetable.glb",
	"GamingChair": "/models/gamingchair.glb",
	"Rack2":       "/models/rack2.glb",
	"Couch":       "/models/couch02.glb",
	"Sofa":        "/models/sofa1.glb",
	"Sofa2":       "/models/soffaaaa.glb",
}

// Sprites returns the 2D catalog in display order.
func Sprites() []Sprite {
	out := make([]Sprite, len(sprites))
	copy(out, sprites)
	return out
}

// SpriteByType looks up a 2D catalog entry.
func SpriteByType(t string) (Sprite, error) {
	for _, s := range sprites {
		if s.Type == t {
			return s, nil
		}
	}
	return Sprite{}, fmt.Errorf("unknown catalog type: %q", t)
}

// Models returns the 3D catalog sorted by name.
func Models() []Model {
	out := make([]Model, 0, len(modelPaths))
	for name := range modelPaths {
		m, _ := ModelByName(name)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ModelByName looks up a 3D catalog entry and derives its format from the path.
func ModelByName(name string) (Model, error) {
	p, ok := modelPaths[name]
	if !ok {
		return Model{}, fmt.Errorf("unknown model: %q", name)
	}
	f, err := scene.FormatForPath(p)
	if err != nil {
		return Model{}, err
	}
	return Model{Name: name, Path: p, Format: f}, nil
}
