package picker

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/camera"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

// Hit is a successful pick.
type Hit struct {
	Square    coords.Square
	Index     int
	Algebraic string
	// World is the centre of the picked tile, not the ray's contact point.
	World mgl64.Vec3
}

// Picker owns the highlight state and an optional tile surface.
// Tiles may be nil until the board mesh exists; picks then miss.
type Picker struct {
	Tiles     *Tiles
	Highlight *Highlight
	Mapper    coords.Mapper
}

func New(m coords.Mapper, tiles *Tiles, hl *Highlight) *Picker {
	if hl == nil {
		hl = NewHighlight(BaseColors(), DefaultHighlightColor)
	}
	return &Picker{Tiles: tiles, Highlight: hl, Mapper: m}
}

// Pick casts through ndc and updates the highlight: a hit lights the tile,
// a miss clears it.
func (p *Picker) Pick(ndc mgl64.Vec2, cam *camera.Perspective) (Hit, bool) {
	if p.Tiles == nil || cam == nil {
		p.Highlight.Clear()
		return Hit{}, false
	}
	ray := cam.Ray(ndc)
	tile, _, ok := p.Tiles.Nearest(ray)
	if !ok {
		p.Highlight.Clear()
		return Hit{}, false
	}
	sq, err := coords.SquareOf(tile.Index)
	if err != nil {
		p.Highlight.Clear()
		return Hit{}, false
	}
	alg, err := p.Mapper.ToAlgebraic(sq)
	if err != nil {
		p.Highlight.Clear()
		return Hit{}, false
	}
	p.Highlight.Set(tile.Index)
	return Hit{Square: sq, Index: tile.Index, Algebraic: alg, World: tile.Center}, true
}
