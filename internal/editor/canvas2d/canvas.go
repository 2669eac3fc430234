// Package canvas2d is the editing state of a 2D floor plan: furniture sprites
// placed, dragged on a snapping grid, resized, rotated and deleted.
//
// A Canvas is owned by a single UI loop and is not safe for concurrent use.
package canvas2d

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"designmate/internal/catalog"
	"designmate/internal/editor"
	"designmate/internal/scene"
)

const (
	DefaultWidth  = 40.0
	DefaultHeight = 40.0
)

type Point struct {
	X, Y float64
}

type Field string

const (
	FieldWidth   Field = "width"
	FieldHeight  Field = "height"
	FieldRotateX Field = "rotateX"
	FieldRotateY Field = "rotateY"
)

type drag struct {
	id     string
	offset Point
}

type Canvas struct {
	grid       float64
	plan       scene.Plan
	background string
	objects    []scene.PlacedObject
	drag       *drag
	newID      func() string
}

type Option func(*Canvas)

// WithGrid sets the snapping unit in pixels.
func WithGrid(unit float64) Option {
	return func(c *Canvas) {
		if unit > 0 {
			c.grid = unit
		}
	}
}

// WithIDs replaces the instance ID generator.
func WithIDs(fn func() string) Option {
	return func(c *Canvas) { c.newID = fn }
}

func New(opts ...Option) *Canvas {
	c := &Canvas{
		grid:  scene.GridUnit,
		plan:  scene.RoomMeta{}.Plan2D(),
		newID: editor.NewID,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Restore returns a canvas holding previously saved objects.
func Restore(objects []scene.PlacedObject, meta scene.RoomMeta, background string, opts ...Option) *Canvas {
	c := New(opts...)
	c.objects = slices.Clone(objects)
	c.plan = meta.Plan2D()
	c.background = background
	return c
}

// Snap rounds v to the nearest multiple of unit, halves rounding up.
func Snap(v, unit float64) float64 {
	return math.Floor(v/unit+0.5) * unit
}

func (c *Canvas) Grid() float64 { return c.grid }

func (c *Canvas) Plan() scene.Plan { return c.plan }

func (c *Canvas) SetPlan(p scene.Plan) {
	c.plan = scene.RoomMeta{RoomWidth: &p.WidthFt, RoomHeight: &p.HeightFt}.Plan2D()
}

func (c *Canvas) Background() string { return c.background }

func (c *Canvas) SetBackground(ref string) { c.background = ref }

func (c *Canvas) State() editor.State {
	if c.drag != nil {
		return editor.StateDragging
	}
	return editor.StateIdle
}

// Objects returns a copy of the placed objects in insertion order.
func (c *Canvas) Objects() []scene.PlacedObject {
	return slices.Clone(c.objects)
}

func (c *Canvas) Len() int { return len(c.objects) }

func (c *Canvas) Object(id string) (scene.PlacedObject, bool) {
	i := c.index(id)
	if i < 0 {
		return scene.PlacedObject{}, false
	}
	return c.objects[i], true
}

// AddObject appends a new instance of a catalog sprite at the origin.
func (c *Canvas) AddObject(catalogType string) (scene.PlacedObject, error) {
	s, err := catalog.SpriteByType(catalogType)
	if err != nil {
		return scene.PlacedObject{}, err
	}
	o := scene.PlacedObject{
		ID:     c.newID(),
		Type:   s.Type,
		Image:  s.Image,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
	c.objects = append(c.objects, o)
	return o, nil
}

// BeginDrag remembers where inside the object the pointer grabbed it.
func (c *Canvas) BeginDrag(id string, pointer Point) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("begin drag %s: %w", id, editor.ErrUnknownObject)
	}
	o := c.objects[i]
	c.drag = &drag{
		id:     id,
		offset: Point{X: pointer.X - o.X, Y: pointer.Y - o.Y},
	}
	return nil
}

// DragMove moves the dragged object to the snapped pointer position.
// It reports whether an object moved.
func (c *Canvas) DragMove(pointer Point) bool {
	if c.drag == nil {
		return false
	}
	i := c.index(c.drag.id)
	if i < 0 {
		c.drag = nil
		return false
	}
	c.objects[i].X = Snap(pointer.X-c.drag.offset.X, c.grid)
	c.objects[i].Y = Snap(pointer.Y-c.drag.offset.Y, c.grid)
	return true
}

func (c *Canvas) EndDrag() {
	c.drag = nil
}

// UpdateField sets a numeric property from user input. The leading number
// is used ("12px" is 12); input without one, or non-finite, is stored as 0.
func (c *Canvas) UpdateField(id string, field Field, value string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, editor.ErrUnknownObject)
	}
	v := ParseNumber(value)
	o := &c.objects[i]
	switch field {
	case FieldWidth:
		o.Width = v
	case FieldHeight:
		o.Height = v
	case FieldRotateX:
		o.RotateX = v
	case FieldRotateY:
		o.RotateY = v
	default:
		return fmt.Errorf("update %s: %q: %w", id, field, editor.ErrUnknownField)
	}
	return nil
}

// DeleteObject removes the instance with id. It reports whether one was removed.
func (c *Canvas) DeleteObject(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.objects = slices.Delete(c.objects, i, i+1)
	if c.drag != nil && c.drag.id == id {
		c.drag = nil
	}
	return true
}

// Meta returns the room settings to store with the design.
func (c *Canvas) Meta() scene.RoomMeta {
	return scene.MetaFromPlan(c.plan)
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the numeric prefix of s, 0 when there is none.
func ParseNumber(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (c *Canvas) index(id string) int {
	return slices.IndexFunc(c.objects, func(o scene.PlacedObject) bool { return o.ID == id })
}
