package client

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"designmate/internal/designs/models"
	"designmate/internal/editor/canvas2d"
	"designmate/internal/editor/canvas3d"
	"designmate/internal/scene"
)

// ============================================================
// Edit and resubmit
// ============================================================

// Resubmit2D saves an edited 2D canvas as a new design with the type and
// visibility of orig. The stored background is downloaded and uploaded again.
// An empty name keeps the original one.
func (c *Client) Resubmit2D(ctx context.Context, s *Session, orig *models.Design, cv *canvas2d.Canvas, name string) (*models.Design, error) {
	if orig.Type != scene.Mode2D {
		return nil, fmt.Errorf("design %s is %s, not 2D", orig.ID, orig.Type)
	}
	meta := cv.Meta()
	req := SaveRequest{
		Name:     nameOr(name, orig.Name),
		Type:     scene.Mode2D,
		IsPublic: orig.IsPublic,
		Objects:  cv.Objects(),
		Meta:     &meta,
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, ErrAuthRequired
	}
	if ref := cv.Background(); ref != "" {
		data, err := c.Fetch(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("fetch background: %w", err)
		}
		req.Background = &Upload{Name: path.Base(ref), Data: bytes.NewReader(data)}
	}
	return c.Save(ctx, s, req)
}

// Resubmit3D saves an edited 3D canvas, room settings included, as a new
// design with the visibility of orig.
func (c *Client) Resubmit3D(ctx context.Context, s *Session, orig *models.Design, cv *canvas3d.Canvas, name string) (*models.Design, error) {
	if orig.Type != scene.Mode3D {
		return nil, fmt.Errorf("design %s is %s, not 3D", orig.ID, orig.Type)
	}
	meta := cv.Meta()
	return c.Save(ctx, s, SaveRequest{
		Name:     nameOr(name, orig.Name),
		Type:     scene.Mode3D,
		IsPublic: orig.IsPublic,
		Models:   cv.Models(),
		Meta:     &meta,
	})
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
