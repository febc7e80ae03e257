package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Glyph outlines on a 45x45 canvas, one per piece type.
var glyphPaths = map[board.PieceType]string{
	board.Pawn: `<circle cx="22.5" cy="14" r="5.5"/>
<path d="M16 36 C16 28 19 23 22.5 21 C26 23 29 28 29 36 Z"/>`,
	board.Rook: `<path d="M12 36 L12 32 L15 32 L15 18 L12 18 L12 10 L16 10 L16 13 L20 13 L20 10 L25 10 L25 13 L29 13 L29 10 L33 10 L33 18 L30 18 L30 32 L33 32 L33 36 Z"/>`,
	board.Knight: `<path d="M14 36 L31 36 C31 26 29 19 24 12 L22 8 L20 12 C15 14 11 19 12 23 L15 24 L19 21 C19 26 15 30 14 36 Z"/>`,
	board.Bishop: `<circle cx="22.5" cy="8" r="2.5"/>
<path d="M15 36 L30 36 L27 30 C31 25 30 18 22.5 11 C15 18 14 25 18 30 Z"/>`,
	board.Queen: `<path d="M11 36 L34 36 L31 28 L36 13 L29 22 L27 10 L22.5 21 L18 10 L16 22 L9 13 L14 28 Z"/>`,
	board.King: `<path d="M21 5 L24 5 L24 8 L27 8 L27 11 L24 11 L24 15 L21 15 L21 11 L18 11 L18 8 L21 8 Z"/>
<path d="M12 36 L33 36 L31 27 C36 22 33 15 22.5 19 C12 15 9 22 14 27 Z"/>`,
}

func glyphSVG(pt board.PieceType, c board.Color) ([]byte, error) {
	body, ok := glyphPaths[pt]
	if !ok {
		return nil, fmt.Errorf("no glyph for piece type %q", pt)
	}
	fill, stroke := "#f4f1ea", "#1b1b1b"
	if c == board.Black {
		fill, stroke = "#24211f", "#e8e4da"
	}
	var b bytes.Buffer
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">`)
	fmt.Fprintf(&b, `<g style="fill:%s;stroke:%s;stroke-width:1.5;stroke-linejoin:round">%s</g></svg>`, fill, stroke, body)
	return b.Bytes(), nil
}

type glyphKey struct {
	pt   board.PieceType
	c    board.Color
	size int
}

type glyphCache struct {
	mu     sync.RWMutex
	images map[glyphKey]image.Image
}

func newGlyphCache() *glyphCache {
	return &glyphCache{images: make(map[glyphKey]image.Image)}
}

func (g *glyphCache) get(pt board.PieceType, c board.Color, size int) (image.Image, error) {
	key := glyphKey{pt, c, size}
	g.mu.RLock()
	img, ok := g.images[key]
	g.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := glyphSVG(pt, c)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse glyph svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	g.mu.Lock()
	g.images[key] = rgba
	g.mu.Unlock()
	return rgba, nil
}
