package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

func mustNew(t *testing.T, fen string) *Engine {
	t.Helper()
	e, err := New(fen)
	if err != nil {
		t.Fatalf("New(%q): %v", fen, err)
	}
	return e
}

func TestAttemptMoveLegality(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		ok       bool
	}{
		{"pawn double step", "e2", "e4", true},
		{"pawn triple step", "e2", "e5", false},
		{"black moves first", "e7", "e5", false},
		{"empty square", "e4", "e5", false},
		{"off board", "e2", "e9", false},
		{"knight", "g1", "f3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustNew(t, "startpos")
			res, ok := e.AttemptMove(tt.from, tt.to)
			if ok != tt.ok {
				t.Fatalf("AttemptMove(%s,%s) ok=%v", tt.from, tt.to, ok)
			}
			if !ok {
				if e.CurrentTurn() != board.White || len(e.MovesUCI()) != 0 {
					t.Fatalf("rejected move changed the game")
				}
				return
			}
			if res.From != tt.from || res.To != tt.to || e.CurrentTurn() != board.Black {
				t.Fatalf("result %+v turn %v", res, e.CurrentTurn())
			}
		})
	}
}

func TestFoolsMate(t *testing.T) {
	e := mustNew(t, "")
	for _, mv := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		if _, ok := e.AttemptMove(mv[0], mv[1]); !ok {
			t.Fatalf("move %v rejected", mv)
		}
	}
	if !e.IsCheckmate() {
		t.Fatalf("expected checkmate")
	}
	if res, _ := e.Outcome(); res != "0-1" {
		t.Fatalf("outcome %q", res)
	}
	if e.CurrentTurn() != board.White {
		t.Fatalf("mated side should be to move")
	}
	san := e.MovesSAN()
	if diff := cmp.Diff([]string{"f3", "e5", "g4"}, san[:3]); diff != "" {
		t.Fatalf("SAN (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(san[3], "Qh4") {
		t.Fatalf("mating move SAN %q", san[3])
	}
	if _, ok := e.AttemptMove("a2", "a3"); ok {
		t.Fatalf("move accepted after mate")
	}
}

func TestSpecialMoves(t *testing.T) {
	t.Run("castle kingside", func(t *testing.T) {
		e := mustNew(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		res, ok := e.AttemptMove("e1", "g1")
		if !ok || !res.Castle || res.RookFrom != "h1" || res.RookTo != "f1" {
			t.Fatalf("result %+v ok=%v", res, ok)
		}
	})
	t.Run("castle queenside", func(t *testing.T) {
		e := mustNew(t, "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")
		res, ok := e.AttemptMove("e8", "c8")
		if !ok || !res.Castle || res.RookFrom != "a8" || res.RookTo != "d8" {
			t.Fatalf("result %+v ok=%v", res, ok)
		}
	})
	t.Run("en passant", func(t *testing.T) {
		e := mustNew(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
		res, ok := e.AttemptMove("e5", "d6")
		if !ok || !res.EnPassant || !res.Capture || res.CapturedSquare != "d5" {
			t.Fatalf("result %+v ok=%v", res, ok)
		}
	})
	t.Run("auto queen", func(t *testing.T) {
		e := mustNew(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
		res, ok := e.AttemptMove("a7", "a8")
		if !ok || res.Promotion != board.Queen || res.UCI != "a7a8q" {
			t.Fatalf("result %+v ok=%v", res, ok)
		}
	})
}

func TestLayoutFromFEN(t *testing.T) {
	m := coords.DefaultMapper()
	layout, err := LayoutFromFEN(PuzzleFEN, m)
	if err != nil {
		t.Fatalf("LayoutFromFEN: %v", err)
	}
	if len(layout) != 16 {
		t.Fatalf("puzzle layout has %d pieces", len(layout))
	}
	s := board.NewState()
	if err := s.Reset(layout); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	c1, _ := m.FromAlgebraic("c1")
	king, ok := s.OccupantAt(c1)
	if !ok || king.Type != board.King || king.Color != board.White {
		t.Fatalf("c1 occupant %v", king)
	}

	full, err := LayoutFromFEN("startpos", m)
	if err != nil || len(full) != 32 {
		t.Fatalf("start layout %d %v", len(full), err)
	}

	if _, err := LayoutFromFEN("not a fen", m); !errors.Is(err, ErrInvalidFEN) {
		t.Fatalf("err = %v", err)
	}
}

func TestRestoreReplays(t *testing.T) {
	e, err := Restore("startpos", []string{"e2e4", "e7e5", "g1f3"})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if e.CurrentTurn() != board.Black || len(e.MovesUCI()) != 3 {
		t.Fatalf("restored game wrong: %v", e.MovesUCI())
	}
	if _, err := Restore("startpos", []string{"e2e5"}); !errors.Is(err, ErrReplayFailed) {
		t.Fatalf("err = %v", err)
	}
}
