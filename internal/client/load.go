package client

import (
	"fmt"

	"designmate/internal/designs/models"
	"designmate/internal/editor/canvas2d"
	"designmate/internal/editor/canvas3d"
	"designmate/internal/scene"
)

// Load2D restores a 2D canvas from a saved design. Missing room settings
// fall back to the defaults.
func Load2D(d *models.Design, opts ...canvas2d.Option) (*canvas2d.Canvas, error) {
	if d.Type != scene.Mode2D {
		return nil, fmt.Errorf("design %s is %s, not 2D", d.ID, d.Type)
	}
	objects, err := scene.Decode2D(d.DesignData.Objects)
	if err != nil {
		return nil, err
	}
	return canvas2d.Restore(objects, d.DesignData.RoomMeta, d.DesignData.Background, opts...), nil
}

// Load3D restores a 3D canvas from a saved design. Missing room size and
// colors fall back to the defaults.
func Load3D(d *models.Design, opts ...canvas3d.Option) (*canvas3d.Canvas, error) {
	if d.Type != scene.Mode3D {
		return nil, fmt.Errorf("design %s is %s, not 3D", d.ID, d.Type)
	}
	placed, err := scene.Decode3D(d.DesignData.Objects)
	if err != nil {
		return nil, err
	}
	return canvas3d.Restore(placed, d.DesignData.RoomMeta, opts...), nil
}
