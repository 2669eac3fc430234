package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	"designmate/internal/client"
	"designmate/internal/designs/models"
	"designmate/internal/export"
	"designmate/internal/scene"
)

func needArgs(args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("expected %s", names)
	}
	return nil
}

func (a *app) session() (*client.Session, error) {
	return loadSession(a.sessionPath)
}

func (a *app) register(ctx context.Context, args []string) error {
	if err := needArgs(args, 2, "<email> <password>"); err != nil {
		return err
	}
	u, err := a.api.Register(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if err := needArgs(args, 2, "<email> <password>"); err != nil {
		return err
	}
	s, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := saveSession(a.sessionPath, s); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", s.User.Email)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	logoutErr := a.api.Logout(ctx, s)
	if err := saveSession(a.sessionPath, s); err != nil {
		return err
	}
	return logoutErr
}

func (a *app) me(ctx context.Context) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	u, err := a.api.Me(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\n", u.ID, u.Email, u.Role)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	public := fs.Bool("public", false, "list public designs of all users")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		designs []*models.Design
		err     error
	)
	if *public {
		designs, err = a.api.ListPublic(ctx)
	} else {
		var s *client.Session
		if s, err = a.session(); err != nil {
			return err
		}
		designs, err = a.api.ListPrivate(ctx, s)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tVISIBILITY\tCREATED")
	for _, d := range designs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Type, visibility(d.IsPublic), created(d.CreatedAt))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s designs\n", humanize.Comma(int64(len(designs))))
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "<id>"); err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	d, err := a.api.Get(ctx, s, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s  %s  %s  %s  %s\n", d.ID, d.Name, d.Type, visibility(d.IsPublic), created(d.CreatedAt))
	switch d.Type {
	case scene.Mode2D:
		c, err := client.Load2D(d)
		if err != nil {
			return err
		}
		p := c.Plan()
		fmt.Fprintf(a.out, "room %g x %g ft\n", p.WidthFt, p.HeightFt)
		for _, o := range c.Objects() {
			fmt.Fprintf(a.out, "  %-14s at (%g, %g) %gx%g\n", o.Type, o.X, o.Y, o.Width, o.Height)
		}
	case scene.Mode3D:
		c, err := client.Load3D(d)
		if err != nil {
			return err
		}
		r := c.Room()
		fmt.Fprintf(a.out, "room %g x %g x %g m, walls %s, floor %s\n", r.Width, r.Length, r.Height, r.WallColor, r.FloorColor)
		for _, m := range c.Models() {
			fmt.Fprintf(a.out, "  %-12s at (%.2f, %.2f, %.2f) scale %.2f\n", m.Name, m.Position.X(), m.Position.Y(), m.Position.Z(), m.Scale.X())
		}
	}
	return nil
}

func (a *app) toggle(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "<id>"); err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	d, err := a.api.Get(ctx, s, args[0])
	if err != nil {
		return err
	}
	if err := a.api.ToggleVisibility(ctx, s, d); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", d.Name, visibility(d.IsPublic))
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "<id>"); err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	if err := a.api.Delete(ctx, s, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", args[0])
	return nil
}

func (a *app) catalog(ctx context.Context) error {
	cat, err := a.api.Catalog(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "2D\tTYPE\tPRICE")
	for _, s := range cat.Sprites {
		fmt.Fprintf(w, "%s\t%s\t₹%s\n", s.Label, s.Type, humanize.Comma(int64(s.Price)))
	}
	fmt.Fprintln(w, "\n3D\tPATH\tFORMAT")
	for _, m := range cat.Models {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Path, m.Format)
	}
	return w.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	assets := fs.String("assets", "public", "directory holding /assets/2d sprites")
	outDir := fs.String("out", ".", "output directory")
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
	d, err := a.api.Get(ctx, s, fs.Arg(0))
	if err != nil {
		return err
	}

	img, err := a.render(ctx, export.NewRenderer(os.DirFS(*assets)), d)
	if err != nil {
		return err
	}

	path := filepath.Join(*outDir, export.FileName(d.Name))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WritePDF(f, d.Name, img, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if st, err := os.Stat(path); err == nil {
		fmt.Fprintf(a.out, "wrote %s (%s)\n", path, humanize.Bytes(uint64(st.Size())))
	}
	return nil
}

func (a *app) render(ctx context.Context, r *export.Renderer, d *models.Design) (image.Image, error) {
	switch d.Type {
	case scene.Mode2D:
		c, err := client.Load2D(d)
		if err != nil {
			return nil, err
		}
		p := export.Preview2D{Objects: c.Objects(), Plan: c.Plan()}
		if bg := c.Background(); bg != "" {
			if p.Background, err = a.background(ctx, bg); err != nil {
				return nil, err
			}
		}
		return r.Render2D(p)
	case scene.Mode3D:
		c, err := client.Load3D(d)
		if err != nil {
			return nil, err
		}
		return r.Render3D(export.Preview3D{Models: c.Models(), Room: c.Room()})
	}
	return nil, fmt.Errorf("unknown design type %q", d.Type)
}

// background skips images the decoder does not understand (webp).
func (a *app) background(ctx context.Context, ref string) (image.Image, error) {
	data, err := a.api.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch background: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, nil
	}
	return img, err
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

func created(s string) string {
	if t, ok := parseTime(s); ok {
		return humanize.Time(t)
	}
	return s
}
