// Package coords converts between board squares, linear tile indices,
// algebraic notation and world-space positions.
package coords

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	Files = 8
	Ranks = 8
	Tiles = Files * Ranks
)

// Default geometry of the loaded board model.
const (
	DefaultCell = 0.057888
)

// DefaultOrigin is the world position of the centre of tile (0, 0).
var DefaultOrigin = mgl64.Vec3{-0.2026083, 0.0173927, -0.2026083}

// ErrOutOfRange reports a square, index or algebraic string outside the board.
var ErrOutOfRange = errors.New("coordinate out of range")

// RangeError carries the rejected input.
type RangeError struct {
	Input string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrOutOfRange.Error(), e.Input)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

func outOfRange(format string, args ...any) error {
	return &RangeError{Input: fmt.Sprintf(format, args...)}
}

// Orientation selects how grid files map onto algebraic letters.
type Orientation int

const (
	// Standard maps file 0 to 'a'.
	Standard Orientation = iota
	// Mirrored maps file 0 to 'h'; used when the board's h-file faces the default camera.
	Mirrored
)

func (o Orientation) String() string {
	if o == Mirrored {
		return "mirrored"
	}
	return "standard"
}

// ParseOrientation accepts "standard" or "mirrored".
func ParseOrientation(s string) (Orientation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "std", "normal":
		return Standard, true
	case "mirrored", "mirror", "flipped":
		return Mirrored, true
	}
	return Standard, false
}

// Square is a grid cell. File runs along world X, rank along world Z.
type Square struct {
	File int
	Rank int
}

// NewSquare validates file and rank.
func NewSquare(file, rank int) (Square, error) {
	sq := Square{File: file, Rank: rank}
	if !sq.Valid() {
		return Square{}, outOfRange("square (%d,%d)", file, rank)
	}
	return sq, nil
}

func (s Square) Valid() bool {
	return s.File >= 0 && s.File < Files && s.Rank >= 0 && s.Rank < Ranks
}

// Index is the tile index of a valid square.
func (s Square) Index() int { return s.Rank*Files + s.File }

func (s Square) String() string { return fmt.Sprintf("(%d,%d)", s.File, s.Rank) }

// TileIndex returns rank*8 + file.
func TileIndex(file, rank int) (int, error) {
	sq, err := NewSquare(file, rank)
	if err != nil {
		return 0, err
	}
	return sq.Index(), nil
}

func FileOf(index int) (int, error) {
	if index < 0 || index >= Tiles {
		return 0, outOfRange("tile index %d", index)
	}
	return index % Files, nil
}

func RankOf(index int) (int, error) {
	if index < 0 || index >= Tiles {
		return 0, outOfRange("tile index %d", index)
	}
	return index / Files, nil
}

// SquareOf decodes a tile index.
func SquareOf(index int) (Square, error) {
	if index < 0 || index >= Tiles {
		return Square{}, outOfRange("tile index %d", index)
	}
	return Square{File: index % Files, Rank: index / Files}, nil
}

// Mapper holds the board geometry and orientation. The zero value is not useful;
// use NewMapper or DefaultMapper.
type Mapper struct {
	Cell        float64
	Origin      mgl64.Vec3
	Orientation Orientation
}

func NewMapper(cell float64, origin mgl64.Vec3, orientation Orientation) Mapper {
	return Mapper{Cell: cell, Origin: origin, Orientation: orientation}
}

// DefaultMapper matches the shipped board model.
func DefaultMapper() Mapper {
	return NewMapper(DefaultCell, DefaultOrigin, Mirrored)
}

// SquareToWorld returns the tile centre at the board origin height.
func (m Mapper) SquareToWorld(sq Square) mgl64.Vec3 {
	return m.SquareToWorldAt(sq, m.Origin.Y())
}

func (m Mapper) SquareToWorldAt(sq Square, y float64) mgl64.Vec3 {
	return mgl64.Vec3{
		m.Origin.X() + float64(sq.File)*m.Cell,
		y,
		m.Origin.Z() + float64(sq.Rank)*m.Cell,
	}
}

// WorldToSquare returns the tile whose footprint contains p (height ignored).
func (m Mapper) WorldToSquare(p mgl64.Vec3) (Square, bool) {
	if m.Cell <= 0 {
		return Square{}, false
	}
	file := int(math.Floor((p.X()-m.Origin.X())/m.Cell + 0.5))
	rank := int(math.Floor((p.Z()-m.Origin.Z())/m.Cell + 0.5))
	sq := Square{File: file, Rank: rank}
	return sq, sq.Valid()
}

func (m Mapper) letterIndex(file int) int {
	if m.Orientation == Mirrored {
		return Files - 1 - file
	}
	return file
}

// ToAlgebraic renders a square as "<letter><digit>".
func (m Mapper) ToAlgebraic(sq Square) (string, error) {
	if !sq.Valid() {
		return "", outOfRange("square (%d,%d)", sq.File, sq.Rank)
	}
	letter := byte('a' + m.letterIndex(sq.File))
	digit := byte('1' + sq.Rank)
	return string([]byte{letter, digit}), nil
}

// FromAlgebraic parses "a1".."h8" (case-insensitive letter).
func (m Mapper) FromAlgebraic(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, outOfRange("algebraic %q", s)
	}
	letter := s[0] | 0x20
	digit := s[1]
	if letter < 'a' || letter > 'h' || digit < '1' || digit > '8' {
		return Square{}, outOfRange("algebraic %q", s)
	}
	// letterIndex is its own inverse for both orientations.
	file := m.letterIndex(int(letter - 'a'))
	return Square{File: file, Rank: int(digit - '1')}, nil
}

// MustAlgebraic is for squares already known to be valid.
func (m Mapper) MustAlgebraic(sq Square) string {
	s, err := m.ToAlgebraic(sq)
	if err != nil {
		panic(err)
	}
	return s
}
