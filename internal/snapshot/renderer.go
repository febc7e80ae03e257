// Package snapshot renders a top-down PNG of the board: tiles with the live
// highlight, piece glyphs and file/rank labels.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Glyph is one piece to draw.
type Glyph struct {
	Type   board.PieceType
	Color  board.Color
	Square string
}

// Scene is everything a snapshot shows.
type Scene struct {
	Pieces []Glyph
	// Highlighted and Selected are algebraic squares, empty for none.
	Highlighted string
	Selected    string
	Caption     string
}

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	selectedTint    = color.NRGBA{R: 120, G: 200, B: 255, A: 120}
	backgroundColor = color.RGBA{28, 31, 46, 255}
	labelColor      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

type Renderer struct {
	squareSize int
	margin     int
	highlight  color.NRGBA
	glyphs     *glyphCache
}

// New renders boards whose playing area is boardSize pixels wide.
func New(boardSize int, highlight [3]float32) *Renderer {
	sq := boardSize / coords.Files
	if sq < 16 {
		sq = 16
	}
	return &Renderer{
		squareSize: sq,
		margin:     24,
		highlight:  color.NRGBA{R: unit8(highlight[0]), G: unit8(highlight[1]), B: unit8(highlight[2]), A: 150},
		glyphs:     newGlyphCache(),
	}
}

func unit8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// FromFrame builds a scene from a live frame.
func FromFrame(f boarddto.Frame, m coords.Mapper) Scene {
	s := Scene{Selected: f.Selected, Caption: fmt.Sprintf("%s to move", f.Turn)}
	if f.Checkmate {
		s.Caption = "checkmate " + f.Outcome
	}
	if f.Highlighted >= 0 {
		if sq, err := coords.SquareOf(f.Highlighted); err == nil {
			s.Highlighted, _ = m.ToAlgebraic(sq)
		}
	}
	for _, p := range f.Pieces {
		s.Pieces = append(s.Pieces, Glyph{Type: board.PieceType(p.Type), Color: board.Color(p.Color), Square: p.Square})
	}
	return s
}

// FromLayout builds a scene from a layout, e.g. one decoded from a FEN.
func FromLayout(l board.Layout, m coords.Mapper) (Scene, error) {
	var s Scene
	for _, pl := range l {
		alg, err := m.ToAlgebraic(pl.Square)
		if err != nil {
			return Scene{}, err
		}
		s.Pieces = append(s.Pieces, Glyph{Type: pl.Type, Color: pl.Color, Square: alg})
	}
	return s, nil
}

// RenderPNG draws the scene with white at the bottom.
func (r *Renderer) RenderPNG(ctx context.Context, s Scene) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := r.Render(s)
	for _, g := range s.Pieces {
		col, row, ok := cell(g.Square)
		if !ok {
			return nil, fmt.Errorf("snapshot: bad square %q", g.Square)
		}
		glyph, err := r.glyphs.get(g.Type, g.Color, r.squareSize)
		if err != nil {
			return nil, err
		}
		draw.Draw(img, r.cellRect(col, row), glyph, image.Point{}, draw.Over)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws the board, highlights and labels without pieces.
func (r *Renderer) Render(s Scene) *image.RGBA {
	boardPx := r.squareSize * coords.Files
	w := boardPx + 2*r.margin
	h := boardPx + 2*r.margin
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	for row := 0; row < coords.Ranks; row++ {
		for col := 0; col < coords.Files; col++ {
			clr := lightSquare
			if (col+row)%2 == 1 {
				clr = darkSquare
			}
			draw.Draw(img, r.cellRect(col, row), image.NewUniform(clr), image.Point{}, draw.Src)
		}
	}
	r.tint(img, s.Selected, selectedTint)
	r.tint(img, s.Highlighted, r.highlight)
	r.labels(img, s.Caption)
	return img
}

func (r *Renderer) tint(img *image.RGBA, square string, clr color.Color) {
	if square == "" {
		return
	}
	col, row, ok := cell(square)
	if !ok {
		return
	}
	draw.Draw(img, r.cellRect(col, row), image.NewUniform(clr), image.Point{}, draw.Over)
}

// cell maps an algebraic square to a screen column and row (row 0 is rank 8).
func cell(square string) (int, int, bool) {
	if len(square) != 2 {
		return 0, 0, false
	}
	f, rk := int(square[0]|0x20)-'a', int(square[1])-'1'
	if f < 0 || f >= coords.Files || rk < 0 || rk >= coords.Ranks {
		return 0, 0, false
	}
	return f, coords.Ranks - 1 - rk, true
}

func (r *Renderer) cellRect(col, row int) image.Rectangle {
	x := r.margin + col*r.squareSize
	y := r.margin + row*r.squareSize
	return image.Rect(x, y, x+r.squareSize, y+r.squareSize)
}

func (r *Renderer) labels(img *image.RGBA, caption string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(labelColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	boardPx := r.squareSize * coords.Files
	for i := 0; i < coords.Files; i++ {
		center := r.margin + i*r.squareSize + r.squareSize/2
		centered(d, string(rune('a'+i)), center, r.margin+boardPx+ascent+4)
		rowCenter := r.margin + i*r.squareSize + r.squareSize/2
		centered(d, string(rune('8'-i)), r.margin/2, rowCenter+ascent/2)
	}
	if caption != "" {
		centered(d, caption, r.margin+boardPx/2, r.margin-6)
	}
}

func centered(d *font.Drawer, text string, cx, baseline int) {
	w := d.MeasureString(text).Round()
	d.Dot = fixed.P(cx-w/2, baseline)
	d.DrawString(text)
}
