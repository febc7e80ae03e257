// Package board keeps the logical grid and the piece registry in lockstep.
//
// Every mutation goes through State methods; the grid and the registry are never
// exposed for direct writes, so "what occupies square X" and "where is piece Y"
// always describe the same set of facts. State is not safe for concurrent use.
package board

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

type State struct {
	grid     [coords.Tiles]PieceID
	registry map[PieceID]*Piece
	newID    func() PieceID
}

func NewState() *State {
	return &State{
		registry: make(map[PieceID]*Piece),
		newID:    func() PieceID { return PieceID(uuid.NewString()) },
	}
}

// Len is the number of registered pieces.
func (s *State) Len() int { return len(s.registry) }

// OccupantAt returns the record on sq, if any.
func (s *State) OccupantAt(sq coords.Square) (*Piece, bool) {
	if !sq.Valid() {
		return nil, false
	}
	id := s.grid[sq.Index()]
	if id == "" {
		return nil, false
	}
	p, ok := s.registry[id]
	return p, ok
}

func (s *State) Piece(id PieceID) (*Piece, bool) {
	p, ok := s.registry[id]
	return p, ok
}

// Pieces returns the records ordered by tile index.
func (s *State) Pieces() []*Piece {
	out := make([]*Piece, 0, len(s.registry))
	for _, p := range s.registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Square.Index() < out[j].Square.Index() })
	return out
}

// FindKing returns the king of the given color.
func (s *State) FindKing(c Color) (*Piece, bool) {
	for _, id := range s.grid {
		if id == "" {
			continue
		}
		if p := s.registry[id]; p != nil && p.Type == King && p.Color == c {
			return p, true
		}
	}
	return nil, false
}

// Register adds a record on an empty square.
func (s *State) Register(pt PieceType, c Color, sq coords.Square, e Entity) (PieceID, error) {
	if !pt.Valid() || !c.Valid() {
		return "", fmt.Errorf("register %s %s: %w", c, pt, ErrInvalidPiece)
	}
	if !sq.Valid() {
		return "", fmt.Errorf("register %s %s: %w", c, pt, &coords.RangeError{Input: sq.String()})
	}
	if cur := s.grid[sq.Index()]; cur != "" {
		return "", fmt.Errorf("register %s %s at %v (held by %s): %w", c, pt, sq, cur, ErrDuplicateSquare)
	}
	id := s.newID()
	s.registry[id] = &Piece{ID: id, Type: pt, Color: c, Square: sq, Entity: e}
	s.grid[sq.Index()] = id
	return id, nil
}

// Move commits a record to a new square. The entity is left where it is;
// the animator is responsible for its transform.
func (s *State) Move(id PieceID, to coords.Square) error {
	p, ok := s.registry[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrUnknownID)
	}
	if !to.Valid() {
		return fmt.Errorf("move %s: %w", id, &coords.RangeError{Input: to.String()})
	}
	if cur := s.grid[to.Index()]; cur != "" && cur != id {
		return fmt.Errorf("move %s to %v (held by %s): %w", id, to, cur, ErrDuplicateSquare)
	}
	s.grid[p.Square.Index()] = ""
	p.Square = to
	s.grid[to.Index()] = id
	return nil
}

// Remove detaches the entity and forgets the record. It reports whether anything
// was removed; a second call with the same id is a no-op.
func (s *State) Remove(id PieceID) bool {
	p, ok := s.registry[id]
	if !ok {
		return false
	}
	if s.grid[p.Square.Index()] == id {
		s.grid[p.Square.Index()] = ""
	}
	delete(s.registry, id)
	if p.Entity != nil {
		p.Entity.Detach()
	}
	return true
}

// SetType changes a record's piece type (promotion).
func (s *State) SetType(id PieceID, pt PieceType) error {
	p, ok := s.registry[id]
	if !ok {
		return fmt.Errorf("set type %s: %w", id, ErrUnknownID)
	}
	if !pt.Valid() {
		return fmt.Errorf("set type %s: %w", id, ErrInvalidPiece)
	}
	p.Type = pt
	return nil
}

// SetEntity swaps the visual entity of a record. The previous entity is
// detached from the scene.
func (s *State) SetEntity(id PieceID, e Entity) error {
	p, ok := s.registry[id]
	if !ok {
		return fmt.Errorf("set entity %s: %w", id, ErrUnknownID)
	}
	if p.Entity != nil && p.Entity != e {
		p.Entity.Detach()
	}
	p.Entity = e
	return nil
}

// Reset replaces the whole position. The layout is validated before anything
// is cleared, so a bad layout leaves the current position intact.
func (s *State) Reset(layout Layout) error {
	var seen [coords.Tiles]bool
	for i, pl := range layout {
		if !pl.Type.Valid() || !pl.Color.Valid() {
			return fmt.Errorf("layout entry %d: %w", i, ErrInvalidPiece)
		}
		if !pl.Square.Valid() {
			return fmt.Errorf("layout entry %d: %w", i, &coords.RangeError{Input: pl.Square.String()})
		}
		if seen[pl.Square.Index()] {
			return fmt.Errorf("layout entry %d at %v: %w", i, pl.Square, ErrDuplicateSquare)
		}
		seen[pl.Square.Index()] = true
	}

	s.grid = [coords.Tiles]PieceID{}
	s.registry = make(map[PieceID]*Piece, len(layout))
	for _, pl := range layout {
		if _, err := s.Register(pl.Type, pl.Color, pl.Square, pl.Entity); err != nil {
			return err
		}
	}
	return nil
}

// Check verifies that grid and registry describe the same occupancy.
func (s *State) Check() error {
	occupied := 0
	for idx, id := range s.grid {
		if id == "" {
			continue
		}
		occupied++
		p, ok := s.registry[id]
		if !ok {
			return fmt.Errorf("tile %d holds unregistered %s: %w", idx, id, ErrInconsistent)
		}
		if p.Square.Index() != idx {
			return fmt.Errorf("tile %d holds %s recorded at %v: %w", idx, id, p.Square, ErrInconsistent)
		}
	}
	if occupied != len(s.registry) {
		return fmt.Errorf("%d occupied tiles, %d records: %w", occupied, len(s.registry), ErrInconsistent)
	}
	return nil
}
