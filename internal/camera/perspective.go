// Package camera models the perspective camera used for picking and the
// scroll-driven transition of its anchor.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Perspective is a look-at camera with a vertical field of view in degrees.
type Perspective struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64
	Aspect   float64
	Near     float64
	Far      float64
}

// NewPerspective mirrors the stock camera: 30° fov, 0.1..50 clip range.
func NewPerspective(aspect float64) *Perspective {
	if aspect <= 0 {
		aspect = 1
	}
	return &Perspective{
		Up:     mgl64.Vec3{0, 1, 0},
		FovY:   30,
		Aspect: aspect,
		Near:   0.1,
		Far:    50,
	}
}

func (c *Perspective) View() mgl64.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(c.Position, c.Target, up)
}

func (c *Perspective) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Ray casts from the camera through normalized device coordinates
// (x right, y up, both in [-1, 1]).
func (c *Perspective) Ray(ndc mgl64.Vec2) Ray {
	inv := c.Projection().Mul4(c.View()).Inv()
	p := inv.Mul4x1(mgl64.Vec4{ndc.X(), ndc.Y(), 0.5, 1})
	if p.W() != 0 {
		p = p.Mul(1 / p.W())
	}
	dir := p.Vec3().Sub(c.Position)
	if dir.Len() == 0 {
		dir = c.Target.Sub(c.Position)
	}
	return Ray{Origin: c.Position, Direction: dir.Normalize()}
}

// Project maps a world point to normalized device coordinates.
func (c *Perspective) Project(p mgl64.Vec3) mgl64.Vec2 {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip.W() == 0 {
		return mgl64.Vec2{}
	}
	return mgl64.Vec2{clip.X() / clip.W(), clip.Y() / clip.W()}
}
