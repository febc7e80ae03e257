package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
)

// Schema creates the archive table.
const Schema = `CREATE TABLE IF NOT EXISTS board_games (
    id            BIGSERIAL PRIMARY KEY,
    session_id    TEXT        NOT NULL,
    start_fen     TEXT        NOT NULL,
    result        TEXT        NOT NULL,
    result_method TEXT        NOT NULL,
    winner        TEXT        NOT NULL DEFAULT '',
    moves_uci     JSONB       NOT NULL,
    moves_san     JSONB       NOT NULL,
    pgn           TEXT        NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT      NOT NULL,
    UNIQUE (session_id, started_at)
)`

type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects with lib/pq, pings, and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (r *Postgres) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

const upsertGame = `INSERT INTO board_games (
    session_id, start_fen, result, result_method, winner,
    moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  ON CONFLICT (session_id, started_at) DO UPDATE SET
    start_fen=EXCLUDED.start_fen,
    result=EXCLUDED.result,
    result_method=EXCLUDED.result_method,
    winner=EXCLUDED.winner,
    moves_uci=EXCLUDED.moves_uci,
    moves_san=EXCLUDED.moves_san,
    pgn=EXCLUDED.pgn,
    ended_at=EXCLUDED.ended_at,
    duration_ms=EXCLUDED.duration_ms
  RETURNING id`

// SaveGame upserts on (session, start time).
func (r *Postgres) SaveGame(ctx context.Context, g *boarddto.ArchivedGame) (int64, error) {
	if g == nil {
		return 0, fmt.Errorf("save game: nil game")
	}
	movesUCI, err := json.Marshal(nonNil(g.MovesUCI))
	if err != nil {
		return 0, err
	}
	movesSAN, err := json.Marshal(nonNil(g.MovesSAN))
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.QueryRowContext(ctx, upsertGame,
		g.SessionID, g.StartFEN, g.Result, strings.TrimSpace(g.ResultMethod), g.Winner,
		string(movesUCI), string(movesSAN), g.PGN,
		g.StartedAt, g.EndedAt, g.Duration.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save game %s: %w", g.SessionID, err)
	}
	return id, nil
}

const selectRecent = `SELECT id, session_id, start_fen, result, result_method, winner,
    moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
  FROM board_games
  WHERE ($1 = '' OR session_id = $1)
  ORDER BY ended_at DESC, id DESC
  LIMIT $2`

func (r *Postgres) RecentGames(ctx context.Context, sessionID string, limit int) ([]*boarddto.ArchivedGame, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectRecent, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}
	defer rows.Close()

	var out []*boarddto.ArchivedGame
	for rows.Next() {
		var (
			g                  boarddto.ArchivedGame
			movesUCI, movesSAN []byte
			durationMS         int64
		)
		if err := rows.Scan(&g.ID, &g.SessionID, &g.StartFEN, &g.Result, &g.ResultMethod, &g.Winner,
			&movesUCI, &movesSAN, &g.PGN, &g.StartedAt, &g.EndedAt, &durationMS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(movesUCI, &g.MovesUCI); err != nil {
			return nil, fmt.Errorf("decode moves_uci: %w", err)
		}
		if err := json.Unmarshal(movesSAN, &g.MovesSAN); err != nil {
			return nil, fmt.Errorf("decode moves_san: %w", err)
		}
		g.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &g)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
