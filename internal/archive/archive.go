// Package archive stores finished games.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-Board3D/pkg/boarddto"
)

var ErrDuplicateGame = errors.New("game already archived")

// Repository persists finished games.
type Repository interface {
	SaveGame(ctx context.Context, g *boarddto.ArchivedGame) (int64, error)
	RecentGames(ctx context.Context, sessionID string, limit int) ([]*boarddto.ArchivedGame, error)
	Close() error
}

// Finalize fills the derived fields (PGN, duration) of a game about to be stored.
func Finalize(g *boarddto.ArchivedGame) {
	if g == nil {
		return
	}
	if g.EndedAt.IsZero() {
		g.EndedAt = time.Now()
	}
	if d := g.EndedAt.Sub(g.StartedAt); d > 0 && !g.StartedAt.IsZero() {
		g.Duration = d
	}
	g.PGN = BuildPGN(g)
}

// ResultFromWinner maps a winning color to a PGN result token.
func ResultFromWinner(winner string) string {
	switch strings.ToLower(strings.TrimSpace(winner)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

// BuildPGN renders headers and numbered SAN moves.
func BuildPGN(g *boarddto.ArchivedGame) string {
	if g == nil {
		return ""
	}
	result := strings.TrimSpace(g.Result)
	if result == "" {
		result = ResultFromWinner(g.Winner)
	}
	date := g.EndedAt
	if date.IsZero() {
		date = time.Now()
	}

	var b strings.Builder
	b.WriteString("[Event \"Board3D\"]\n")
	fmt.Fprintf(&b, "[Site \"%s\"]\n", sanitizePGN(g.SessionID))
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	b.WriteString("[White \"white\"]\n")
	b.WriteString("[Black \"black\"]\n")
	if fen := strings.TrimSpace(g.StartFEN); fen != "" && !isStandardStart(fen) {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN \"%s\"]\n", sanitizePGN(fen))
	}
	if m := strings.TrimSpace(g.ResultMethod); m != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(m)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	ply0 := startPly(g.StartFEN)
	for i, san := range g.MovesSAN {
		ply := ply0 + i
		switch {
		case ply%2 == 0:
			fmt.Fprintf(&b, "%d. ", ply/2+1)
		case i == 0:
			fmt.Fprintf(&b, "%d... ", ply/2+1)
		}
		b.WriteString(strings.TrimSpace(san))
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func isStandardStart(fen string) bool {
	return strings.EqualFold(fen, "startpos") ||
		strings.HasPrefix(fen, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w")
}

// startPly derives the half-move index of the first move from the FEN's side
// to move and full-move number.
func startPly(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return 0
	}
	full := 1
	if len(fields) >= 6 {
		if _, err := fmt.Sscanf(fields[5], "%d", &full); err != nil || full < 1 {
			full = 1
		}
	}
	ply := (full - 1) * 2
	if fields[1] == "b" {
		ply++
	}
	return ply
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
