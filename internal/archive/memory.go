package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/park285/Cheese-Board3D/pkg/boarddto"
)

// Memory is the in-process repository used when no database is configured.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	games  []*boarddto.ArchivedGame
	index  map[string]int64
}

func NewMemory() *Memory {
	return &Memory{index: make(map[string]int64)}
}

func gameKey(g *boarddto.ArchivedGame) string {
	return g.SessionID + "|" + g.StartedAt.UTC().Format(time.RFC3339Nano)
}

// SaveGame stores a copy. A second game with the same session and start time
// is rejected with ErrDuplicateGame.
func (m *Memory) SaveGame(_ context.Context, g *boarddto.ArchivedGame) (int64, error) {
	if g == nil {
		return 0, ErrDuplicateGame
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := gameKey(g)
	if _, ok := m.index[key]; ok {
		return 0, ErrDuplicateGame
	}
	m.nextID++
	cp := *g
	cp.ID = m.nextID
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	m.games = append(m.games, &cp)
	m.index[key] = cp.ID
	return cp.ID, nil
}

// RecentGames returns the newest games first; an empty sessionID matches all.
func (m *Memory) RecentGames(_ context.Context, sessionID string, limit int) ([]*boarddto.ArchivedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*boarddto.ArchivedGame, 0, len(m.games))
	for _, g := range m.games {
		if sessionID == "" || g.SessionID == sessionID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndedAt.Equal(out[j].EndedAt) {
			return out[i].EndedAt.After(out[j].EndedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
