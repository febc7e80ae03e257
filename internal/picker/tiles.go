// Package picker turns pointer positions into board squares by ray casting
// against the instanced tile surface, and keeps the single-slot highlight.
package picker

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/camera"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

// DefaultTileLift raises the tiles just above the board model to avoid z-fighting.
const DefaultTileLift = 0.0005

var (
	LightTile = [3]float32{1, 1, 1}
	DarkTile  = [3]float32{0, 0, 0}
)

// Tile is one instance of the tile surface: a horizontal square of side Size.
type Tile struct {
	Index  int
	Center mgl64.Vec3
	Size   float64
}

// Intersect returns the ray distance to the tile, if the ray hits it from either side.
func (t Tile) Intersect(r camera.Ray) (float64, bool) {
	dy := r.Direction.Y()
	if math.Abs(dy) < 1e-12 {
		return 0, false
	}
	dist := (t.Center.Y() - r.Origin.Y()) / dy
	if dist < 0 {
		return 0, false
	}
	p := r.At(dist)
	half := t.Size / 2
	if math.Abs(p.X()-t.Center.X()) > half || math.Abs(p.Z()-t.Center.Z()) > half {
		return 0, false
	}
	return dist, true
}

// Tiles is the 64-instance tile surface, indexed by coords.TileIndex.
type Tiles struct {
	Mapper    coords.Mapper
	Instances [coords.Tiles]Tile
}

// NewTiles lays out one tile per square at the board height plus lift.
func NewTiles(m coords.Mapper, lift float64) *Tiles {
	t := &Tiles{Mapper: m}
	y := m.Origin.Y() + lift
	for i := 0; i < coords.Tiles; i++ {
		sq, _ := coords.SquareOf(i)
		t.Instances[i] = Tile{Index: i, Center: m.SquareToWorldAt(sq, y), Size: m.Cell}
	}
	return t
}

// BaseColors returns the checkered resting colors, one RGB triple per tile.
func BaseColors() []float32 {
	out := make([]float32, 0, coords.Tiles*3)
	for i := 0; i < coords.Tiles; i++ {
		c := LightTile
		if (i%coords.Files+i/coords.Files)%2 == 1 {
			c = DarkTile
		}
		out = append(out, c[0], c[1], c[2])
	}
	return out
}

// Nearest returns the instance closest along the ray.
func (t *Tiles) Nearest(r camera.Ray) (Tile, float64, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i := range t.Instances {
		if d, ok := t.Instances[i].Intersect(r); ok && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Tile{}, 0, false
	}
	return t.Instances[best], bestDist, true
}
