package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/archive"
	"github.com/park285/Cheese-Board3D/internal/boardview"
	"github.com/park285/Cheese-Board3D/internal/rules"
	"github.com/park285/Cheese-Board3D/internal/scene"
	"github.com/park285/Cheese-Board3D/internal/session"
	"github.com/redis/go-redis/v9"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	loop     *Loop
	sessions *session.Store
	games    *archive.Memory
	cancel   context.CancelFunc
	done     chan error
	stopOnce sync.Once
}

func start(t *testing.T, fen string) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{sessions: session.NewStore(rdb, time.Hour), games: archive.NewMemory()}
	f.loop = New(Options{
		SessionID:    "test-session",
		TickInterval: time.Hour,
		Clock:        func() time.Time { return t0 },
	}, f.sessions, f.games)

	root, err := scene.DefaultScene()
	if err != nil {
		t.Fatalf("DefaultScene: %v", err)
	}
	r, err := rules.New(fen)
	if err != nil {
		t.Fatalf("rules.New: %v", err)
	}
	e, err := boardview.New(root, r, nil, boardview.DefaultOptions(), f.loop.Hooks(), nil)
	if err != nil {
		t.Fatalf("boardview.New: %v", err)
	}
	f.loop.Attach(e, 1, t0.Add(-time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan error, 1)
	go func() { f.done <- f.loop.Run(ctx) }()
	t.Cleanup(f.stop)

	if err := f.loop.Do(context.Background(), func(e *boardview.Engine) {
		e.SnapCamera()
		f.loop.Tick(t0)
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	return f
}

// stop cancels Run and waits for the persistence queue to drain.
func (f *fixture) stop() {
	f.stopOnce.Do(func() {
		f.cancel()
		<-f.done
	})
}

func (f *fixture) click(t *testing.T, alg string) boardview.ClickOutcome {
	t.Helper()
	var ndc mgl64.Vec2
	err := f.loop.Do(context.Background(), func(e *boardview.Engine) {
		m := e.Mapper()
		sq, err := m.FromAlgebraic(alg)
		if err != nil {
			t.Errorf("FromAlgebraic(%s): %v", alg, err)
			return
		}
		ndc = e.Camera().Project(m.SquareToWorldAt(sq, m.Origin.Y()))
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	out, err := f.loop.Click(context.Background(), ndc)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	return out
}

func (f *fixture) tick(t *testing.T, at time.Time) {
	t.Helper()
	if err := f.loop.Do(context.Background(), func(*boardview.Engine) { f.loop.Tick(at) }); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func TestMoveSavesSession(t *testing.T) {
	f := start(t, "startpos")
	frames, unsubscribe := f.loop.Subscribe(8)
	defer unsubscribe()

	if got := f.click(t, "e2"); got != boardview.ClickSelected {
		t.Fatalf("select: %v", got)
	}
	if got := f.click(t, "e4"); got != boardview.ClickMoved {
		t.Fatalf("move: %v", got)
	}
	f.tick(t, t0.Add(time.Second))
	if err := f.loop.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	var last uint64
	for len(frames) > 0 {
		last = (<-frames).Seq
	}
	if fr, ok := f.loop.Frame(); !ok || fr.Seq != last || fr.LastMove != "e2e4" {
		t.Fatalf("latest frame seq=%d last=%s, subscriber saw %d", fr.Seq, fr.LastMove, last)
	}

	f.stop()
	snap, err := f.sessions.Load(context.Background(), "test-session")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.MovesUCI) != 1 || snap.MovesUCI[0] != "e2e4" || snap.Progress != 1 {
		t.Fatalf("snapshot %+v", snap)
	}
	if !snap.StartedAt.Equal(t0.Add(-time.Minute)) {
		t.Fatalf("startedAt %v", snap.StartedAt)
	}
}

func TestCheckmateArchivesGame(t *testing.T) {
	f := start(t, "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2")
	f.click(t, "d8")
	if got := f.click(t, "h4"); got != boardview.ClickMoved {
		t.Fatalf("mating move: %v", got)
	}
	f.tick(t, t0.Add(time.Second))
	f.stop()

	games, err := f.games.RecentGames(context.Background(), "test-session", 5)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("%d games archived", len(games))
	}
	g := games[0]
	if g.Result != "0-1" || g.Winner != "black" || len(g.MovesUCI) != 1 || g.PGN == "" {
		t.Fatalf("game %+v", g)
	}
	if g.Duration != time.Minute+time.Second {
		t.Fatalf("duration %v", g.Duration)
	}
}

func TestResetAndStop(t *testing.T) {
	f := start(t, "startpos")
	if err := f.loop.Reset(context.Background(), "not a fen"); err == nil {
		t.Fatalf("bad reset accepted")
	}
	if err := f.loop.Reset(context.Background(), rules.PuzzleFEN); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fr, _ := f.loop.Frame(); len(fr.Pieces) != 16 {
		t.Fatalf("frame has %d pieces after reset", len(fr.Pieces))
	}
	if err := f.loop.Scroll(context.Background(), 0.25); err != nil {
		t.Fatalf("Scroll: %v", err)
	}

	frames, _ := f.loop.Subscribe(1)
	f.loop.Stop()
	f.stop()
	for range frames {
	}
	if err := f.loop.Reset(context.Background(), ""); err != ErrStopped {
		t.Fatalf("reset after stop: %v", err)
	}

	snap, err := f.sessions.Load(context.Background(), "test-session")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.StartFEN != rules.PuzzleFEN || len(snap.MovesUCI) != 0 || snap.Progress != 0.25 {
		t.Fatalf("snapshot %+v", snap)
	}
}

func TestRunRequiresEngine(t *testing.T) {
	if err := New(Options{}, nil, nil).Run(context.Background()); err != ErrNotAttached {
		t.Fatalf("Run without engine: %v", err)
	}
	if id := New(Options{}, nil, nil).SessionID(); len(id) != 36 {
		t.Fatalf("generated session id %q", id)
	}
}

func TestResetIntoMateArchivesNothing(t *testing.T) {
	f := start(t, "startpos")
	if err := f.loop.Reset(context.Background(), "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fr, _ := f.loop.Frame(); !fr.Checkmate {
		t.Fatalf("frame not marked checkmate")
	}
	f.stop()

	games, err := f.games.RecentGames(context.Background(), "test-session", 5)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("reset into a mated position archived %d game(s)", len(games))
	}
	snap, err := f.sessions.Load(context.Background(), "test-session")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !snap.StartedAt.Equal(t0) || len(snap.MovesUCI) != 0 {
		t.Fatalf("snapshot %+v", snap)
	}
}
