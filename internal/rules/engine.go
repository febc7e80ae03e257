// Package rules adapts github.com/corentings/chess/v2 to the board engine's
// rules collaborator: legality, turn order and checkmate detection.
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

// PuzzleFEN is the stock opening position of the board view.
const PuzzleFEN = "3r1k1r/4R1Rp/p2P4/1p1n2P1/3N4/8/PPP5/2K5 w - - 0 1"

// StandardFEN is the regular chess start.
const StandardFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN   = errors.New("invalid FEN")
	ErrReplayFailed = errors.New("stored move does not replay")
)

// MoveResult describes an accepted move in algebraic squares.
type MoveResult struct {
	From      string
	To        string
	UCI       string
	SAN       string
	Piece     board.PieceType
	Color     board.Color
	Capture   bool
	EnPassant bool
	// CapturedSquare is where the captured piece stood; differs from To only for en passant.
	CapturedSquare string
	Castle         bool
	RookFrom       string
	RookTo         string
	Promotion      board.PieceType
}

// Engine wraps a single game.
type Engine struct {
	game     *nchess.Game
	startFEN string
}

// New starts a game from fen. "" and "startpos" mean the standard start.
func New(fen string) (*Engine, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || strings.EqualFold(fen, "startpos") {
		return &Engine{game: nchess.NewGame(), startFEN: StandardFEN}, nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return &Engine{game: nchess.NewGame(opt), startFEN: fen}, nil
}

// Restore rebuilds a game from its start FEN and UCI move list.
func Restore(fen string, movesUCI []string) (*Engine, error) {
	e, err := New(fen)
	if err != nil {
		return nil, err
	}
	for i, mv := range movesUCI {
		if err := e.game.PushNotationMove(strings.ToLower(mv), nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("%w: move %d %q: %v", ErrReplayFailed, i+1, mv, err)
		}
	}
	return e, nil
}

func parseSquare(s string) (nchess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return nchess.NoSquare, false
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), true
}

// AttemptMove plays from→to if legal. Pawns reaching the last rank become queens.
// Illegal moves are rejected without error.
func (e *Engine) AttemptMove(from, to string) (MoveResult, bool) {
	if e.game.Outcome() != nchess.NoOutcome {
		return MoveResult{}, false
	}
	s1, ok1 := parseSquare(from)
	s2, ok2 := parseSquare(to)
	if !ok1 || !ok2 || s1 == s2 {
		return MoveResult{}, false
	}
	pos := e.game.Position()
	piece := pos.Board().Piece(s1)
	if piece == nchess.NoPiece || piece.Color() != pos.Turn() {
		return MoveResult{}, false
	}
	uci := s1.String() + s2.String()
	if piece.Type() == nchess.Pawn && (s2.Rank() == nchess.Rank8 || s2.Rank() == nchess.Rank1) {
		uci += "q"
	}
	if err := e.game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return MoveResult{}, false
	}
	mv := lastMove(e.game)
	if mv == nil {
		return MoveResult{}, false
	}

	res := MoveResult{
		From:  s1.String(),
		To:    s2.String(),
		UCI:   uci,
		SAN:   nchess.AlgebraicNotation{}.Encode(pos, mv),
		Piece: pieceType(piece.Type()),
		Color: color(piece.Color()),
	}
	res.Capture = mv.HasTag(nchess.Capture) || mv.HasTag(nchess.EnPassant)
	if res.Capture {
		res.CapturedSquare = res.To
	}
	if mv.HasTag(nchess.EnPassant) {
		res.EnPassant = true
		res.CapturedSquare = nchess.NewSquare(s2.File(), s1.Rank()).String()
	}
	rank := s1.Rank()
	switch {
	case mv.HasTag(nchess.KingSideCastle):
		res.Castle = true
		res.RookFrom = nchess.NewSquare(nchess.FileH, rank).String()
		res.RookTo = nchess.NewSquare(nchess.FileF, rank).String()
	case mv.HasTag(nchess.QueenSideCastle):
		res.Castle = true
		res.RookFrom = nchess.NewSquare(nchess.FileA, rank).String()
		res.RookTo = nchess.NewSquare(nchess.FileD, rank).String()
	}
	if p := mv.Promo(); p != nchess.NoPieceType {
		res.Promotion = pieceType(p)
	}
	return res, true
}

func lastMove(game *nchess.Game) *nchess.Move {
	moves := game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// CurrentTurn is the side to move.
func (e *Engine) CurrentTurn() board.Color {
	return color(e.game.Position().Turn())
}

func (e *Engine) IsCheckmate() bool {
	return e.game.Method() == nchess.Checkmate
}

// Outcome returns the result string ("1-0", "0-1", "1/2-1/2", "*") and the method.
func (e *Engine) Outcome() (string, string) {
	return string(e.game.Outcome()), e.game.Method().String()
}

func (e *Engine) FEN() string      { return e.game.FEN() }
func (e *Engine) StartFEN() string { return e.startFEN }

func (e *Engine) MovesUCI() []string {
	moves := e.game.Moves()
	out := make([]string, len(moves))
	for i, mv := range moves {
		out[i] = mv.String()
	}
	return out
}

func (e *Engine) MovesSAN() []string {
	positions := e.game.Positions()
	moves := e.game.Moves()
	out := make([]string, len(moves))
	notation := nchess.AlgebraicNotation{}
	for i, mv := range moves {
		if i < len(positions) {
			out[i] = notation.Encode(positions[i], mv)
		}
	}
	return out
}

// Layout returns the current position as a board layout.
func (e *Engine) Layout(m coords.Mapper) (board.Layout, error) {
	return layoutFromBoard(e.game.Position().Board(), m)
}

// LayoutFromFEN decodes the piece placement of fen into grid squares.
func LayoutFromFEN(fen string, m coords.Mapper) (board.Layout, error) {
	e, err := New(fen)
	if err != nil {
		return nil, err
	}
	return e.Layout(m)
}

func layoutFromBoard(b *nchess.Board, m coords.Mapper) (board.Layout, error) {
	out := make(board.Layout, 0, 32)
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		p := b.Piece(sq)
		if p == nchess.NoPiece {
			continue
		}
		gs, err := m.FromAlgebraic(sq.String())
		if err != nil {
			return nil, fmt.Errorf("layout square %s: %w", sq, err)
		}
		out = append(out, board.Placement{Type: pieceType(p.Type()), Color: color(p.Color()), Square: gs})
	}
	return out, nil
}

func color(c nchess.Color) board.Color {
	if c == nchess.White {
		return board.White
	}
	return board.Black
}

func pieceType(pt nchess.PieceType) board.PieceType {
	switch pt {
	case nchess.King:
		return board.King
	case nchess.Queen:
		return board.Queen
	case nchess.Rook:
		return board.Rook
	case nchess.Bishop:
		return board.Bishop
	case nchess.Knight:
		return board.Knight
	case nchess.Pawn:
		return board.Pawn
	}
	return ""
}
