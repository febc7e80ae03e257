package anim

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"github.com/park285/Cheese-Board3D/internal/scene"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	state  *board.State
	mapper coords.Mapper
	anim   *Animator
	parent *scene.Node
}

func newFixture() *fixture {
	m := coords.NewMapper(coords.DefaultCell, coords.DefaultOrigin, coords.Standard)
	s := board.NewState()
	return &fixture{
		state:  s,
		mapper: m,
		anim:   New(s, m, DefaultArcHeight(m.Cell), nil),
		parent: scene.NewNode("pieces"),
	}
}

func (f *fixture) place(t *testing.T, pt board.PieceType, c board.Color, alg string, height float64) (board.PieceID, *scene.Node) {
	t.Helper()
	sq, err := f.mapper.FromAlgebraic(alg)
	if err != nil {
		t.Fatalf("FromAlgebraic(%s): %v", alg, err)
	}
	n := scene.NewNode("piece")
	n.SetPosition(f.mapper.SquareToWorldAt(sq, height))
	f.parent.Add(n)
	id, err := f.state.Register(pt, c, sq, n)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return id, n
}

func (f *fixture) square(t *testing.T, alg string) coords.Square {
	t.Helper()
	sq, err := f.mapper.FromAlgebraic(alg)
	if err != nil {
		t.Fatalf("FromAlgebraic(%s): %v", alg, err)
	}
	return sq
}

func TestPawnE2E4(t *testing.T) {
	f := newFixture()
	const height = 0.0273927
	pawn, node := f.place(t, board.Pawn, board.White, "e2", height)
	e2, e4 := f.square(t, "e2"), f.square(t, "e4")
	if e2 != (coords.Square{File: 4, Rank: 1}) {
		t.Fatalf("e2 decoded as %v", e2)
	}

	if err := f.anim.Start(pawn, e4, 400*time.Millisecond, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, done := f.anim.Advance(t0.Add(200 * time.Millisecond)); done {
		t.Fatalf("completed at half time")
	}
	mid := node.Position()
	if math.Abs(mid.Y()-(height+DefaultArcHeight(f.mapper.Cell))) > 1e-9 {
		t.Fatalf("mid-flight height %v, want peak", mid.Y())
	}
	if occ, _ := f.state.OccupantAt(e2); occ == nil || occ.ID != pawn {
		t.Fatalf("board committed before completion")
	}

	c, done := f.anim.Advance(t0.Add(450 * time.Millisecond))
	if !done || c.Err != nil {
		t.Fatalf("expected completion, got %+v done=%v", c, done)
	}
	if occ, ok := f.state.OccupantAt(e4); !ok || occ.ID != pawn {
		t.Fatalf("e4 not occupied by pawn")
	}
	if _, ok := f.state.OccupantAt(e2); ok {
		t.Fatalf("e2 still occupied")
	}
	if got := node.Position(); math.Abs(got.Y()-height) > 1e-12 || !got.ApproxEqual(f.mapper.SquareToWorldAt(e4, height)) {
		t.Fatalf("final position %v", got)
	}
	if f.anim.Phase() != Idle {
		t.Fatalf("animator not idle")
	}
}

func TestCaptureOnD5(t *testing.T) {
	f := newFixture()
	knight, _ := f.place(t, board.Knight, board.White, "c3", 0.02)
	victim, victimNode := f.place(t, board.Pawn, board.Black, "d5", 0.02)
	d5 := f.square(t, "d5")

	if err := f.anim.Start(knight, d5, 0, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec, _ := f.anim.Active()
	if rec.Capture != victim || rec.Duration != DefaultDuration {
		t.Fatalf("record %+v", rec)
	}
	c, done := f.anim.Advance(t0.Add(time.Second))
	if !done || c.Err != nil {
		t.Fatalf("completion %+v", c)
	}
	if c.CapturedID != victim {
		t.Fatalf("captured %q want %q", c.CapturedID, victim)
	}
	if _, ok := f.state.Piece(victim); ok {
		t.Fatalf("victim still registered")
	}
	if victimNode.Attached() {
		t.Fatalf("victim entity still in scene")
	}
	if occ, _ := f.state.OccupantAt(d5); occ == nil || occ.ID != knight {
		t.Fatalf("d5 occupant wrong")
	}
	if err := f.state.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestStartWhileAnimating(t *testing.T) {
	f := newFixture()
	a, _ := f.place(t, board.Rook, board.White, "a1", 0.02)
	b, _ := f.place(t, board.Rook, board.White, "h1", 0.02)

	if err := f.anim.Start(a, f.square(t, "a4"), 0, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before, _ := f.anim.Active()
	err := f.anim.Start(b, f.square(t, "h5"), 0, t0.Add(10*time.Millisecond))
	if !errors.Is(err, ErrAlreadyAnimating) {
		t.Fatalf("err = %v", err)
	}
	after, _ := f.anim.Active()
	if after.EndPos != before.EndPos || after.PieceID != a {
		t.Fatalf("in-flight record changed: %+v", after)
	}
}

func TestStartUnknownID(t *testing.T) {
	f := newFixture()
	err := f.anim.Start("nope", coords.Square{}, 0, t0)
	if !errors.Is(err, board.ErrUnknownID) {
		t.Fatalf("err = %v", err)
	}
	if f.anim.Phase() != Idle {
		t.Fatalf("failed start left animator %v", f.anim.Phase())
	}
}

func TestCancelDoesNotCommit(t *testing.T) {
	f := newFixture()
	id, _ := f.place(t, board.Queen, board.White, "d1", 0.02)
	if err := f.anim.Start(id, f.square(t, "d4"), 0, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.anim.Cancel()
	if _, done := f.anim.Advance(t0.Add(time.Second)); done {
		t.Fatalf("cancelled animation completed")
	}
	if p, _ := f.state.Piece(id); p.Square != f.square(t, "d1") {
		t.Fatalf("cancelled move committed to %v", p.Square)
	}
}
