package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"designmate/internal/client"
	"designmate/internal/designs/models"
	"designmate/internal/editor/canvas2d"
	"designmate/internal/editor/canvas3d"
	"designmate/internal/scene"
)

// listFlag collects a repeated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, " ") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// edits are canvas operations given on the command line.
type edits struct {
	add, remove, set, move, scale, rotate listFlag
	room                                  string
}

func (e *edits) register(fs *flag.FlagSet) {
	fs.Var(&e.add, "add", "add a catalog item (2D type or 3D model name), repeatable")
	fs.Var(&e.remove, "delete", "delete an object by id, repeatable")
	fs.Var(&e.set, "set", "2D: set a field, ID.FIELD=VALUE (width, height, rotateX, rotateY)")
	fs.Var(&e.move, "move", "move an object, ID=X,Y (2D, snapped) or ID=X,Y,Z (3D)")
	fs.Var(&e.scale, "scale", "3D: multiply a model scale, ID=FACTOR")
	fs.Var(&e.rotate, "rotate", "3D: turn a model by rotation steps, ID=STEPS")
	fs.StringVar(&e.room, "room", "", "room size, W,H in ft (2D) or W,L,H in m (3D)")
}

// ============================================================
// save
// ============================================================

func (a *app) save(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	name := fs.String("name", "", "design name")
	public := fs.Bool("public", false, "publish the design")
	from := fs.String("from", "", "JSON file with saved objects to start from")
	bg := fs.String("bg", "", "2D background image")
	var e edits
	e.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs.Args(), 1, "<2D|3D>"); err != nil {
		return err
	}

	var raw json.RawMessage
	if *from != "" {
		data, err := os.ReadFile(*from)
		if err != nil {
			return err
		}
		raw = data
	}

	req := client.SaveRequest{Name: *name, Type: scene.Mode(fs.Arg(0)), IsPublic: *public}
	switch req.Type {
	case scene.Mode2D:
		objects, err := scene.Decode2D(raw)
		if err != nil {
			return err
		}
		c := canvas2d.Restore(objects, scene.RoomMeta{}, "")
		if err := e.apply2D(c); err != nil {
			return err
		}
		meta := c.Meta()
		req.Objects, req.Meta = c.Objects(), &meta
	case scene.Mode3D:
		placed, err := scene.Decode3D(raw)
		if err != nil {
			return err
		}
		c := canvas3d.Restore(placed, scene.RoomMeta{})
		if err := e.apply3D(c); err != nil {
			return err
		}
		meta := c.Meta()
		req.Models, req.Meta = c.Models(), &meta
	default:
		return fmt.Errorf("unknown design type %q", fs.Arg(0))
	}

	if *bg != "" {
		f, err := os.Open(*bg)
		if err != nil {
			return err
		}
		defer f.Close()
		req.Background = &client.Upload{Name: filepath.Base(*bg), Data: f}
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	d, err := a.api.Save(ctx, s, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s as %s\n", d.Name, d.ID)
	return nil
}

// ============================================================
// edit
// ============================================================

// edit loads a design, applies the edits and saves the result as a new design.
func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	name := fs.String("name", "", "name of the new design (default: the original name)")
	var e edits
	e.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs.Args(), 1, "<id>"); err != nil {
		return err
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	orig, err := a.api.Get(ctx, s, fs.Arg(0))
	if err != nil {
		return err
	}

	var d *models.Design
	switch orig.Type {
	case scene.Mode2D:
		c, err := client.Load2D(orig)
		if err != nil {
			return err
		}
		if err := e.apply2D(c); err != nil {
			return err
		}
		d, err = a.api.Resubmit2D(ctx, s, orig, c, *name)
		if err != nil {
			return err
		}
	case scene.Mode3D:
		c, err := client.Load3D(orig)
		if err != nil {
			return err
		}
		if err := e.apply3D(c); err != nil {
			return err
		}
		d, err = a.api.Resubmit3D(ctx, s, orig, c, *name)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown design type %q", orig.Type)
	}
	fmt.Fprintf(a.out, "saved %s as %s (from %s)\n", d.Name, d.ID, orig.ID)
	return nil
}

// ============================================================
// Canvas operations
// ============================================================

func (e *edits) apply2D(c *canvas2d.Canvas) error {
	for _, key := range e.add {
		if _, err := c.AddObject(key); err != nil {
			return err
		}
	}
	for _, id := range e.remove {
		if !c.DeleteObject(id) {
			return fmt.Errorf("delete %s: no such object", id)
		}
	}
	for _, arg := range e.set {
		target, value, err := assignment(arg)
		if err != nil {
			return err
		}
		id, field, ok := strings.Cut(target, ".")
		if !ok {
			return fmt.Errorf("-set %q: expected ID.FIELD=VALUE", arg)
		}
		if err := c.UpdateField(id, canvas2d.Field(field), value); err != nil {
			return err
		}
	}
	for _, arg := range e.move {
		id, v, err := vector(arg, 2)
		if err != nil {
			return err
		}
		o, ok := c.Object(id)
		if !ok {
			return fmt.Errorf("move %s: no such object", id)
		}
		// dragged by its top-left corner
		if err := c.BeginDrag(id, canvas2d.Point{X: o.X, Y: o.Y}); err != nil {
			return err
		}
		c.DragMove(canvas2d.Point{X: v[0], Y: v[1]})
		c.EndDrag()
	}
	if len(e.scale) > 0 || len(e.rotate) > 0 {
		return fmt.Errorf("-scale and -rotate apply to 3D designs, use -set for 2D")
	}
	if e.room != "" {
		v, err := floats(e.room, 2)
		if err != nil {
			return fmt.Errorf("-room: %w", err)
		}
		c.SetPlan(scene.Plan{WidthFt: v[0], HeightFt: v[1]})
	}
	return nil
}

func (e *edits) apply3D(c *canvas3d.Canvas) error {
	for _, key := range e.add {
		if _, err := c.AddModel(key); err != nil {
			return err
		}
	}
	for _, id := range e.remove {
		if !c.DeleteModel(id) {
			return fmt.Errorf("delete %s: no such model", id)
		}
	}
	if len(e.set) > 0 {
		return fmt.Errorf("-set applies to 2D designs")
	}
	for _, arg := range e.move {
		id, v, err := vector(arg, 3)
		if err != nil {
			return err
		}
		pose, err := c.Select(id)
		if err != nil {
			return err
		}
		pose.Position = scene.Vec3{v[0], v[1], v[2]}
		if err := c.ApplyGizmo(pose); err != nil {
			return err
		}
	}
	for _, arg := range e.scale {
		id, v, err := vector(arg, 1)
		if err != nil {
			return err
		}
		if err := c.ScaleBy(id, v[0]); err != nil {
			return err
		}
	}
	for _, arg := range e.rotate {
		id, v, err := vector(arg, 1)
		if err != nil {
			return err
		}
		if err := c.RotateBy(id, v[0]*canvas3d.RotateStep); err != nil {
			return err
		}
	}
	if e.room != "" {
		v, err := floats(e.room, 3)
		if err != nil {
			return fmt.Errorf("-room: %w", err)
		}
		r := c.Room()
		r.Width, r.Length, r.Height = v[0], v[1], v[2]
		c.SetRoom(r)
	}
	return nil
}

func assignment(arg string) (string, string, error) {
	k, v, ok := strings.Cut(arg, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("%q: expected ID=VALUE", arg)
	}
	return k, v, nil
}

func vector(arg string, n int) (string, []float64, error) {
	id, value, err := assignment(arg)
	if err != nil {
		return "", nil, err
	}
	v, err := floats(value, n)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", id, err)
	}
	return id, v, nil
}

func floats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p)
		}
		out[i] = v
	}
	return out, nil
}
