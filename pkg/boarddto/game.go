package boarddto

import "time"

// ArchivedGame is a finished game as stored by the archive.
type ArchivedGame struct {
	ID           int64         `json:"id"`
	SessionID    string        `json:"sessionId"`
	StartFEN     string        `json:"startFen"`
	Result       string        `json:"result"`
	ResultMethod string        `json:"resultMethod"`
	Winner       string        `json:"winner,omitempty"`
	MovesUCI     []string      `json:"movesUci"`
	MovesSAN     []string      `json:"movesSan"`
	PGN          string        `json:"pgn"`
	StartedAt    time.Time     `json:"startedAt"`
	EndedAt      time.Time     `json:"endedAt"`
	Duration     time.Duration `json:"duration"`
}
