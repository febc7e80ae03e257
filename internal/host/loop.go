// Package host drives a board engine from a single goroutine: a fixed-rate
// ticker, a command queue for input from transports, frame fan-out to
// subscribers and an asynchronous persistence worker.
package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/park285/Cheese-Board3D/internal/archive"
	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/boardview"
	"github.com/park285/Cheese-Board3D/internal/session"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
	"go.uber.org/zap"
)

var (
	ErrStopped     = errors.New("host loop stopped")
	ErrNotAttached = errors.New("host loop has no engine")
)

const (
	defaultQueue   = 64
	persistTimeout = 3 * time.Second
)

// SessionStore is the subset of the session store the loop writes to.
type SessionStore interface {
	Save(ctx context.Context, s *session.Snapshot) error
}

// record is what the loop needs from the rules collaborator to persist a game.
type record interface {
	StartFEN() string
	MovesUCI() []string
	MovesSAN() []string
	Outcome() (string, string)
}

type Options struct {
	// SessionID keys the live session; empty picks a random one.
	SessionID    string
	TickInterval time.Duration
	QueueSize    int
	Clock        func() time.Time
	Log          *zap.Logger
}

type persistJob struct {
	snapshot *session.Snapshot
	game     *boarddto.ArchivedGame
}

type Loop struct {
	opts     Options
	log      *zap.Logger
	sessions SessionStore
	games    archive.Repository

	engine    *boardview.Engine
	progress  float64
	startedAt time.Time

	cmds    chan func(*boardview.Engine)
	persist chan persistJob
	stop     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	wg       sync.WaitGroup

	frame atomic.Pointer[boarddto.Frame]

	subsMu  sync.Mutex
	subs    map[int]chan boarddto.Frame
	nextSub int
}

// New builds a loop. sessions and games may be nil to skip persistence.
func New(opts Options, sessions SessionStore, games archive.Repository) *Loop {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueue
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Loop{
		opts:      opts,
		log:       opts.Log,
		sessions:  sessions,
		games:     games,
		startedAt: opts.Clock(),
		cmds:      make(chan func(*boardview.Engine), opts.QueueSize),
		persist:   make(chan persistJob, opts.QueueSize),
		stop:      make(chan struct{}),
		subs:      make(map[int]chan boarddto.Frame),
	}
}

func (l *Loop) SessionID() string { return l.opts.SessionID }

// Hooks returns the engine observers that feed the persistence worker.
func (l *Loop) Hooks() boardview.Hooks {
	return boardview.Hooks{
		OnMove:      l.onMove,
		OnCheckmate: l.onCheckmate,
		OnReset:     l.onReset,
	}
}

// Attach hands the engine to the loop. Call it before Run.
func (l *Loop) Attach(e *boardview.Engine, progress float64, startedAt time.Time) {
	l.engine = e
	l.progress = progress
	if !startedAt.IsZero() {
		l.startedAt = startedAt
	}
	e.SetScrollProgress(progress)
	l.publish()
}

// Run ticks until ctx is done or Stop is called, then drains the persistence queue.
func (l *Loop) Run(ctx context.Context) error {
	if l.engine == nil {
		return ErrNotAttached
	}
	l.wg.Add(1)
	go l.persistWorker()
	defer func() {
		l.Stop()
		l.engine.Close()
		close(l.persist)
		l.wg.Wait()
		l.closeSubscribers()
	}()

	t := time.NewTicker(l.opts.TickInterval)
	defer t.Stop()
	l.log.Info("host_loop_start", zap.String("session_id", l.opts.SessionID), zap.Duration("tick", l.opts.TickInterval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case fn := <-l.cmds:
			fn(l.engine)
		case <-t.C:
			l.Tick(l.opts.Clock())
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stop)
	})
}

// Tick advances the engine one frame and publishes it. Run calls it on every
// ticker fire; tests call it directly.
func (l *Loop) Tick(now time.Time) {
	l.engine.Update(now)
	l.publish()
}

func (l *Loop) publish() {
	f := l.engine.Frame()
	l.frame.Store(&f)

	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	for id, ch := range l.subs {
		select {
		case ch <- f:
		default:
			// Slow subscribers skip frames; the next one supersedes this.
			l.log.Debug("frame_dropped", zap.Int("subscriber", id), zap.Uint64("seq", f.Seq))
		}
	}
}

// Frame returns the last published frame.
func (l *Loop) Frame() (boarddto.Frame, bool) {
	f := l.frame.Load()
	if f == nil {
		return boarddto.Frame{}, false
	}
	return *f, true
}

// Subscribe registers a frame listener. The returned cancel func unregisters
// it and closes the channel.
func (l *Loop) Subscribe(buffer int) (<-chan boarddto.Frame, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan boarddto.Frame, buffer)
	l.subsMu.Lock()
	l.nextSub++
	id := l.nextSub
	l.subs[id] = ch
	l.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subsMu.Lock()
			if _, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(ch)
			}
			l.subsMu.Unlock()
		})
	}
}

func (l *Loop) closeSubscribers() {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}

// Do runs fn on the loop goroutine and waits for it.
func (l *Loop) Do(ctx context.Context, fn func(*boardview.Engine)) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	done := make(chan struct{})
	wrapped := func(e *boardview.Engine) {
		defer close(done)
		fn(e)
	}
	select {
	case l.cmds <- wrapped:
	case <-l.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-l.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) PointerMove(ctx context.Context, ndc mgl64.Vec2) error {
	return l.Do(ctx, func(e *boardview.Engine) {
		e.PointerMove(ndc)
		l.publish()
	})
}

func (l *Loop) Click(ctx context.Context, ndc mgl64.Vec2) (boardview.ClickOutcome, error) {
	var out boardview.ClickOutcome
	err := l.Do(ctx, func(e *boardview.Engine) {
		out = e.Click(ndc, l.opts.Clock())
		l.publish()
	})
	return out, err
}

// Scroll sets the camera progress and saves it with the session.
func (l *Loop) Scroll(ctx context.Context, progress float64) error {
	return l.Do(ctx, func(e *boardview.Engine) {
		l.progress = progress
		e.SetScrollProgress(progress)
		l.enqueue(persistJob{snapshot: l.snapshot(e)})
	})
}

func (l *Loop) Reset(ctx context.Context, fen string) error {
	var resetErr error
	err := l.Do(ctx, func(e *boardview.Engine) {
		resetErr = e.Reset(fen)
		l.publish()
	})
	if err != nil {
		return err
	}
	return resetErr
}

// Check verifies the board's grid, registry and piece positions agree.
func (l *Loop) Check(ctx context.Context) error {
	var checkErr error
	if err := l.Do(ctx, func(e *boardview.Engine) { checkErr = e.Check() }); err != nil {
		return err
	}
	return checkErr
}

func (l *Loop) onMove(ev boardview.MoveEvent) {
	l.enqueue(persistJob{snapshot: l.snapshot(l.engine)})
}

func (l *Loop) onCheckmate(loser board.Color, ev boardview.MoveEvent) {
	if l.engine == nil || ev.Result.UCI == "" {
		// No move ended this game.
		return
	}
	rec, ok := l.engine.Rules().(record)
	if !ok {
		return
	}
	result, method := rec.Outcome()
	end := ev.At
	if end.IsZero() {
		end = l.opts.Clock()
	}
	g := &boarddto.ArchivedGame{
		SessionID:    l.opts.SessionID,
		StartFEN:     rec.StartFEN(),
		Result:       result,
		ResultMethod: method,
		Winner:       string(loser.Opposite()),
		MovesUCI:     rec.MovesUCI(),
		MovesSAN:     rec.MovesSAN(),
		StartedAt:    l.startedAt,
		EndedAt:      end,
	}
	archive.Finalize(g)
	l.enqueue(persistJob{game: g})
}

func (l *Loop) onReset(fen string) {
	l.startedAt = l.opts.Clock()
	// Engine.Reset has already swapped in the new rules when this runs.
	l.enqueue(persistJob{snapshot: l.snapshot(l.engine)})
}

func (l *Loop) snapshot(e *boardview.Engine) *session.Snapshot {
	if e == nil {
		return nil
	}
	s := &session.Snapshot{
		ID:        l.opts.SessionID,
		FEN:       e.Rules().FEN(),
		Progress:  l.progress,
		StartedAt: l.startedAt,
		UpdatedAt: l.opts.Clock(),
	}
	if rec, ok := e.Rules().(record); ok {
		s.StartFEN = rec.StartFEN()
		s.MovesUCI = rec.MovesUCI()
	}
	return s
}

func (l *Loop) enqueue(job persistJob) {
	if l.stopped.Load() || (job.snapshot == nil && job.game == nil) {
		return
	}
	if job.snapshot != nil && l.sessions == nil {
		job.snapshot = nil
	}
	if job.game != nil && l.games == nil {
		job.game = nil
	}
	if job.snapshot == nil && job.game == nil {
		return
	}
	select {
	case l.persist <- job:
	default:
		l.log.Warn("persist_queue_full", zap.String("session_id", l.opts.SessionID))
	}
}

func (l *Loop) persistWorker() {
	defer l.wg.Done()
	for job := range l.persist {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if job.snapshot != nil {
			if err := l.sessions.Save(ctx, job.snapshot); err != nil {
				l.log.Warn("session_save_failed", zap.String("session_id", job.snapshot.ID), zap.Error(err))
			}
		}
		if job.game != nil {
			id, err := l.games.SaveGame(ctx, job.game)
			switch {
			case errors.Is(err, archive.ErrDuplicateGame):
				l.log.Info("game_already_archived", zap.String("session_id", job.game.SessionID))
			case err != nil:
				l.log.Error("game_archive_failed", zap.String("session_id", job.game.SessionID), zap.Error(err))
			default:
				l.log.Info("game_archived", zap.Int64("game_id", id), zap.String("result", job.game.Result))
			}
		}
		cancel()
	}
}
