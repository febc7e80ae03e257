package board

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

// Color identifies chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool { return c == White || c == Black }

// PieceType is the lower-case piece name used by the scene assets.
type PieceType string

const (
	Pawn   PieceType = "pawn"
	Rook   PieceType = "rook"
	Knight PieceType = "knight"
	Bishop PieceType = "bishop"
	Queen  PieceType = "queen"
	King   PieceType = "king"
)

// PieceTypes lists every type in asset order.
var PieceTypes = []PieceType{Pawn, Rook, Knight, Bishop, Queen, King}

// Colors lists both sides, white first.
var Colors = []Color{White, Black}

func (p PieceType) Valid() bool {
	switch p {
	case Pawn, Rook, Knight, Bishop, Queen, King:
		return true
	}
	return false
}

// ParsePieceType accepts full names and single-letter FEN symbols.
func ParsePieceType(s string) (PieceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pawn", "p":
		return Pawn, true
	case "rook", "r":
		return Rook, true
	case "knight", "n":
		return Knight, true
	case "bishop", "b":
		return Bishop, true
	case "queen", "q":
		return Queen, true
	case "king", "k":
		return King, true
	}
	return "", false
}

func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	}
	return "", false
}

// PieceID is an opaque unique key.
type PieceID string

// Entity is the renderable object a record points at. The scene graph owns it.
type Entity interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	// Detach removes the entity from its parent in the scene graph.
	Detach()
}

// Piece is a registry record.
type Piece struct {
	ID     PieceID
	Type   PieceType
	Color  Color
	Square coords.Square
	Entity Entity
}

func (p *Piece) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s %s@%v", p.ID, p.Color, p.Type, p.Square)
}

// Placement is one entry of a board layout.
type Placement struct {
	Type   PieceType
	Color  Color
	Square coords.Square
	Entity Entity
}

// Layout is an explicit per-square assignment; it need not be the standard start.
type Layout []Placement
