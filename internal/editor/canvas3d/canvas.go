// Package canvas3d is the editing state of a 3D room: furniture models with
// a single selection whose pose is driven by a transform gizmo.
//
// A Canvas is owned by a single UI loop and is not safe for concurrent use.
package canvas3d

import (
	"fmt"
	"math"
	"slices"

	"designmate/internal/catalog"
	"designmate/internal/editor"
	"designmate/internal/scene"
)

const (
	InitialScale = 0.5
	ScaleStep    = 1.1
	RotateStep   = math.Pi / 8
)

type Canvas struct {
	room     scene.Room
	models   []scene.PlacedModel
	selected string
	newID    func() string
}

type Option func(*Canvas)

// WithIDs replaces the instance ID generator.
func WithIDs(fn func() string) Option {
	return func(c *Canvas) { c.newID = fn }
}

func New(opts ...Option) *Canvas {
	c := &Canvas{
		room:  scene.RoomMeta{}.Room3D(),
		newID: editor.NewID,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Restore returns a canvas holding previously saved models with nothing selected.
func Restore(models []scene.PlacedModel, meta scene.RoomMeta, opts ...Option) *Canvas {
	c := New(opts...)
	c.models = slices.Clone(models)
	c.room = meta.Room3D()
	return c
}

func (c *Canvas) Room() scene.Room { return c.room }

// SetRoom replaces the room settings; missing or invalid values fall back to defaults.
func (c *Canvas) SetRoom(r scene.Room) {
	c.room = scene.MetaFromRoom(r).Room3D()
}

func (c *Canvas) Meta() scene.RoomMeta {
	return scene.MetaFromRoom(c.room)
}

func (c *Canvas) Models() []scene.PlacedModel {
	return slices.Clone(c.models)
}

func (c *Canvas) Len() int { return len(c.models) }

func (c *Canvas) Model(id string) (scene.PlacedModel, bool) {
	i := c.index(id)
	if i < 0 {
		return scene.PlacedModel{}, false
	}
	return c.models[i], true
}

func (c *Canvas) State() editor.State {
	if c.selected != "" {
		return editor.StateSelected
	}
	return editor.StateIdle
}

// Selected returns the selected model ID.
func (c *Canvas) Selected() (string, bool) {
	return c.selected, c.selected != ""
}

// AddModel appends a catalog model at the origin and selects it.
func (c *Canvas) AddModel(catalogKey string) (scene.PlacedModel, error) {
	entry, err := catalog.ModelByName(catalogKey)
	if err != nil {
		return scene.PlacedModel{}, err
	}
	m := scene.PlacedModel{
		ID:    c.newID(),
		Name:  entry.Name,
		Path:  entry.Path,
		Type:  entry.Format,
		Scale: scene.Vec3{InitialScale, InitialScale, InitialScale},
	}
	c.models = append(c.models, m)
	c.selected = m.ID
	return m, nil
}

// Select makes id the selection and returns the pose the gizmo attaches with.
func (c *Canvas) Select(id string) (scene.Pose, error) {
	i := c.index(id)
	if i < 0 {
		return scene.Pose{}, fmt.Errorf("select %s: %w", id, editor.ErrUnknownObject)
	}
	c.selected = id
	return c.models[i].Pose(), nil
}

// ApplyGizmo writes the gizmo's current pose into the selected model.
func (c *Canvas) ApplyGizmo(p scene.Pose) error {
	i := c.index(c.selected)
	if i < 0 {
		return editor.ErrNoSelection
	}
	m := &c.models[i]
	m.Position = p.Position
	m.Rotation = p.Rotation
	m.Scale = p.Scale
	return nil
}

// ScaleBy multiplies all scale components of a model.
func (c *Canvas) ScaleBy(id string, factor float64) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("scale %s: %w", id, editor.ErrUnknownObject)
	}
	if factor <= 0 {
		return fmt.Errorf("scale %s: factor must be positive, got %v", id, factor)
	}
	for k := range c.models[i].Scale {
		c.models[i].Scale[k] *= factor
	}
	return nil
}

// RotateBy turns a model about the vertical axis.
func (c *Canvas) RotateBy(id string, radians float64) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("rotate %s: %w", id, editor.ErrUnknownObject)
	}
	y := math.Mod(c.models[i].Rotation[1]+radians, 2*math.Pi)
	c.models[i].Rotation[1] = y
	return nil
}

// DeleteModel removes a model, clearing the selection if it was selected.
func (c *Canvas) DeleteModel(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.models = slices.Delete(c.models, i, i+1)
	if c.selected == id {
		c.selected = ""
	}
	return true
}

func (c *Canvas) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(c.models, func(m scene.PlacedModel) bool { return m.ID == id })
}
