package canvas3d

import (
	"math"

	"designmate/internal/scene"
)

// Wall names one of the four room walls.
type Wall int

const (
	WallNone Wall = iota
	WallBack
	WallFront
	WallLeft
	WallRight
)

func (w Wall) String() string {
	switch w {
	case WallNone:
		return "none"
	case WallBack:
		return "back"
	case WallFront:
		return "front"
	case WallLeft:
		return "left"
	case WallRight:
		return "right"
	}
	return "unknown"
}

// HiddenWall picks the wall between the camera and the room for a camera
// looking along forward: the dominant horizontal axis decides, then its sign.
func HiddenWall(forward scene.Vec3) Wall {
	x, z := forward.X(), forward.Z()
	if math.Abs(x) > math.Abs(z) {
		if x > 0 {
			return WallLeft
		}
		return WallRight
	}
	if z > 0 {
		return WallBack
	}
	return WallFront
}

// WallCuller must be called once per rendered frame before drawing.
// It keeps only the last result.
type WallCuller struct {
	hidden Wall
}

func (c *WallCuller) OnFrame(forward scene.Vec3) Wall {
	c.hidden = HiddenWall(forward)
	return c.hidden
}

func (c *WallCuller) Hidden() Wall { return c.hidden }

// Visible reports whether w should be drawn this frame.
func (c *WallCuller) Visible(w Wall) bool {
	return w != c.hidden
}

// WallPlane is one wall quad centered at Position, turned Yaw radians about Y.
type WallPlane struct {
	Wall     Wall
	Position scene.Vec3
	Yaw      float64
	Width    float64
	Height   float64
}

// Walls lays out the four walls around a floor centered at the origin.
func Walls(r scene.Room) []WallPlane {
	h := r.Height / 2
	return []WallPlane{
		{WallBack, scene.Vec3{0, h, -r.Length / 2}, 0, r.Width, r.Height},
		{WallFront, scene.Vec3{0, h, r.Length / 2}, math.Pi, r.Width, r.Height},
		{WallLeft, scene.Vec3{-r.Width / 2, h, 0}, math.Pi / 2, r.Length, r.Height},
		{WallRight, scene.Vec3{r.Width / 2, h, 0}, -math.Pi / 2, r.Length, r.Height},
	}
}
