package board

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

type fakeEntity struct {
	pos      mgl64.Vec3
	detached int
}

func (f *fakeEntity) Position() mgl64.Vec3     { return f.pos }
func (f *fakeEntity) SetPosition(p mgl64.Vec3) { f.pos = p }
func (f *fakeEntity) Detach()                  { f.detached++ }

func sq(file, rank int) coords.Square { return coords.Square{File: file, Rank: rank} }

type occupancy map[int]PieceID

func snapshot(s *State) occupancy {
	out := occupancy{}
	for _, p := range s.Pieces() {
		out[p.Square.Index()] = p.ID
	}
	return out
}

func TestRegisterAndLookup(t *testing.T) {
	s := NewState()
	e := &fakeEntity{}
	id, err := s.Register(Pawn, White, sq(4, 1), e)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p, ok := s.OccupantAt(sq(4, 1))
	if !ok || p.ID != id || p.Entity != e {
		t.Fatalf("OccupantAt mismatch: %v %v", p, ok)
	}
	if _, ok := s.OccupantAt(sq(4, 3)); ok {
		t.Fatalf("expected empty square")
	}
	if _, err := s.Register(Knight, Black, sq(4, 1), nil); !errors.Is(err, ErrDuplicateSquare) {
		t.Fatalf("expected ErrDuplicateSquare, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("duplicate register must not add a record, len=%d", s.Len())
	}
	if _, err := s.Register("dragon", White, sq(0, 0), nil); !errors.Is(err, ErrInvalidPiece) {
		t.Fatalf("expected ErrInvalidPiece, got %v", err)
	}
	if _, err := s.Register(Rook, White, sq(9, 0), nil); !errors.Is(err, coords.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := s.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestMove(t *testing.T) {
	s := NewState()
	e := &fakeEntity{pos: mgl64.Vec3{1, 2, 3}}
	id, _ := s.Register(Pawn, White, sq(4, 1), e)
	if err := s.Move(id, sq(4, 3)); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, ok := s.OccupantAt(sq(4, 1)); ok {
		t.Fatalf("old square still occupied")
	}
	p, ok := s.OccupantAt(sq(4, 3))
	if !ok || p.ID != id || p.Square != sq(4, 3) {
		t.Fatalf("new square mismatch: %v", p)
	}
	if e.pos != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("Move must not touch the entity transform")
	}
	if err := s.Move("nope", sq(0, 0)); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
	other, _ := s.Register(Rook, Black, sq(0, 7), nil)
	if err := s.Move(id, sq(0, 7)); !errors.Is(err, ErrDuplicateSquare) {
		t.Fatalf("expected ErrDuplicateSquare onto %s, got %v", other, err)
	}
	if err := s.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	s := NewState()
	e := &fakeEntity{}
	id, _ := s.Register(Queen, Black, sq(3, 4), e)
	keep, _ := s.Register(King, Black, sq(4, 7), nil)

	if !s.Remove(id) {
		t.Fatalf("first Remove should report removal")
	}
	after := snapshot(s)
	if s.Remove(id) {
		t.Fatalf("second Remove should be a no-op")
	}
	if diff := cmp.Diff(after, snapshot(s)); diff != "" {
		t.Fatalf("state changed on second Remove (-want +got):\n%s", diff)
	}
	if e.detached != 1 {
		t.Fatalf("entity detached %d times, want 1", e.detached)
	}
	if _, ok := s.Piece(keep); !ok {
		t.Fatalf("unrelated piece removed")
	}
	if err := s.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestResetToLayout(t *testing.T) {
	s := NewState()
	stale, _ := s.Register(Pawn, White, sq(0, 0), nil)

	layout := Layout{
		{Type: King, Color: White, Square: sq(5, 0)},
		{Type: Pawn, Color: White, Square: sq(0, 1)},
		{Type: Pawn, Color: White, Square: sq(1, 1)},
		{Type: King, Color: Black, Square: sq(2, 7)},
		{Type: Rook, Color: Black, Square: sq(4, 7)},
	}
	if err := s.Reset(layout); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Len() != len(layout) {
		t.Fatalf("records = %d want %d", s.Len(), len(layout))
	}
	if _, ok := s.Piece(stale); ok {
		t.Fatalf("stale record survived reset")
	}
	occupied := 0
	for i := 0; i < coords.Tiles; i++ {
		sqi, _ := coords.SquareOf(i)
		if p, ok := s.OccupantAt(sqi); ok {
			occupied++
			if p.Square != sqi {
				t.Fatalf("record square %v != grid cell %v", p.Square, sqi)
			}
		}
	}
	if occupied != len(layout) {
		t.Fatalf("occupied = %d want %d", occupied, len(layout))
	}
	if err := s.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestResetRejectsDuplicateWithoutClearing(t *testing.T) {
	s := NewState()
	id, _ := s.Register(King, White, sq(4, 0), nil)
	bad := Layout{
		{Type: Rook, Color: White, Square: sq(0, 0)},
		{Type: Rook, Color: Black, Square: sq(0, 0)},
	}
	if err := s.Reset(bad); !errors.Is(err, ErrDuplicateSquare) {
		t.Fatalf("expected ErrDuplicateSquare, got %v", err)
	}
	if _, ok := s.Piece(id); !ok || s.Len() != 1 {
		t.Fatalf("failed reset must leave previous position intact")
	}
}

func TestFindKingAndSetType(t *testing.T) {
	s := NewState()
	k, _ := s.Register(King, Black, sq(2, 7), nil)
	p, _ := s.Register(Pawn, White, sq(0, 6), nil)
	got, ok := s.FindKing(Black)
	if !ok || got.ID != k {
		t.Fatalf("FindKing(Black) = %v,%v", got, ok)
	}
	if _, ok := s.FindKing(White); ok {
		t.Fatalf("no white king registered")
	}
	if err := s.SetType(p, Queen); err != nil {
		t.Fatalf("SetType: %v", err)
	}
	if rec, _ := s.Piece(p); rec.Type != Queen {
		t.Fatalf("type = %s", rec.Type)
	}
	if err := s.SetType("missing", Queen); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestParseHelpers(t *testing.T) {
	if pt, ok := ParsePieceType("N"); !ok || pt != Knight {
		t.Fatalf("ParsePieceType(N) = %v,%v", pt, ok)
	}
	if c, ok := ParseColor("b"); !ok || c != Black {
		t.Fatalf("ParseColor(b) = %v,%v", c, ok)
	}
	if White.Opposite() != Black || Black.Opposite() != White {
		t.Fatalf("Opposite broken")
	}
}
