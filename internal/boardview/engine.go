// Package boardview ties the board state, picker, animator, effect and camera
// together behind a single per-tick entry point and the click-to-move flow.
//
// Engine is not safe for concurrent use; the host serializes every call.
package boardview

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/anim"
	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/camera"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"github.com/park285/Cheese-Board3D/internal/effect"
	"github.com/park285/Cheese-Board3D/internal/picker"
	"github.com/park285/Cheese-Board3D/internal/rules"
	"github.com/park285/Cheese-Board3D/internal/scene"
	"go.uber.org/zap"
)

// MoveEvent is reported once a move, including any castling rook, is committed.
type MoveEvent struct {
	Result     rules.MoveResult
	PieceID    board.PieceID
	CapturedID board.PieceID
	FEN        string
	At         time.Time
}

// Hooks are optional observers. They run on the engine's goroutine and must not block.
type Hooks struct {
	OnMove      func(MoveEvent)
	OnCheckmate func(loser board.Color, ev MoveEvent)
	OnReset     func(fen string)
}

type Engine struct {
	opts  Options
	log   *zap.Logger
	hooks Hooks

	root    *scene.Node
	pieces  *scene.Node
	library *scene.Library

	state      *board.State
	animator   *anim.Animator
	effect     *effect.Controller
	picker     *picker.Picker
	cam        *camera.Perspective
	transition *camera.Transition

	rules    Rules
	newRules RulesFactory

	selected  board.PieceID
	pending   *rules.MoveResult
	last      *MoveEvent
	lastUCI   string
	checkmate bool
	lastTick  time.Time
	seq       uint64
	closed    bool
}

// New builds an engine over a loaded scene. The pieces of the scene are
// indexed by name and placed according to r's current position.
func New(root *scene.Node, r Rules, factory RulesFactory, opts Options, hooks Hooks, log *zap.Logger) (*Engine, error) {
	if root == nil {
		return nil, fmt.Errorf("boardview: nil scene root")
	}
	if r == nil {
		return nil, fmt.Errorf("boardview: nil rules")
	}
	if factory == nil {
		factory = DefaultRulesFactory
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()

	pieces := root.Find("pieces")
	if pieces == nil {
		pieces = scene.NewNode("pieces")
		root.Add(pieces)
	}
	state := board.NewState()
	cam := camera.NewPerspective(opts.Aspect)
	cam.FovY = opts.FovY
	tr := camera.NewTransition(opts.StartAnchor, opts.GameAnchor, opts.CameraTarget, opts.CameraRate)
	tr.Apply(cam)

	e := &Engine{
		opts:       opts,
		log:        log,
		hooks:      hooks,
		root:       root,
		pieces:     pieces,
		library:    scene.NewLibrary(root, log),
		state:      state,
		animator:   anim.New(state, opts.Mapper, opts.ArcHeight, log),
		effect:     effect.New(opts.Effect, log),
		picker:     picker.New(opts.Mapper, picker.NewTiles(opts.Mapper, opts.TileLift), picker.NewHighlight(picker.BaseColors(), opts.HighlightColor)),
		cam:        cam,
		transition: tr,
		newRules:   factory,
	}
	if err := e.Load(r); err != nil {
		return nil, err
	}
	return e, nil
}

// Load replaces the rules collaborator and re-populates the board from its position.
func (e *Engine) Load(r Rules) error {
	layout, err := r.Layout(e.opts.Mapper)
	if err != nil {
		return fmt.Errorf("boardview: layout: %w", err)
	}
	e.animator.Cancel()
	e.effect.Release()
	e.selected = ""
	e.pending = nil
	e.last = nil
	e.lastUCI = ""
	e.checkmate = false
	e.picker.Highlight.Clear()

	placed := e.library.Populate(layout, e.opts.Mapper, e.pieces)
	if err := e.state.Reset(placed); err != nil {
		return fmt.Errorf("boardview: reset board: %w", err)
	}
	e.rules = r
	e.log.Info("board_loaded",
		zap.Int("layout", len(layout)),
		zap.Int("placed", len(placed)),
		zap.String("fen", r.FEN()),
	)
	if r.IsCheckmate() {
		// Already mated on load: show the effect, no game ended here.
		e.startCheckmate(e.now(), MoveEvent{FEN: r.FEN()}, false)
	}
	return nil
}

// Reset starts over from fen ("" for the configured default of the factory).
func (e *Engine) Reset(fen string) error {
	r, err := e.newRules(fen)
	if err != nil {
		return fmt.Errorf("boardview: reset %q: %w", fen, err)
	}
	if err := e.Load(r); err != nil {
		return err
	}
	if e.hooks.OnReset != nil {
		e.hooks.OnReset(r.FEN())
	}
	return nil
}

// now is the time of the last tick, or the configured clock before the first one.
func (e *Engine) now() time.Time {
	if !e.lastTick.IsZero() {
		return e.lastTick
	}
	return e.opts.Clock()
}

// Update is the per-frame tick: camera easing, move animation, effect.
func (e *Engine) Update(now time.Time) {
	if e.closed {
		return
	}
	var dt time.Duration
	if !e.lastTick.IsZero() {
		dt = now.Sub(e.lastTick)
	}
	e.lastTick = now
	e.seq++

	e.transition.Advance(dt)
	e.transition.Apply(e.cam)

	if c, done := e.animator.Advance(now); done {
		e.onCompletion(c, now)
	}
	e.effect.Advance(now)
}

func (e *Engine) onCompletion(c anim.Completion, now time.Time) {
	if c.Err != nil {
		e.log.Error("move_commit_failed", zap.String("piece_id", string(c.PieceID)), zap.Error(c.Err))
	}
	res := e.pending
	e.pending = nil
	if res == nil {
		// Chained rook of a castle landed.
		e.finishMove(now)
		return
	}

	ev := MoveEvent{Result: *res, PieceID: c.PieceID, CapturedID: c.CapturedID, At: now}
	if res.EnPassant {
		if sq, err := e.opts.Mapper.FromAlgebraic(res.CapturedSquare); err == nil {
			if occ, ok := e.state.OccupantAt(sq); ok && occ.ID != c.PieceID {
				e.state.Remove(occ.ID)
				ev.CapturedID = occ.ID
			}
		}
	}
	if res.Promotion != "" {
		e.promote(c.PieceID, res.Promotion)
	}
	e.last = &ev

	if res.Castle {
		from, err1 := e.opts.Mapper.FromAlgebraic(res.RookFrom)
		to, err2 := e.opts.Mapper.FromAlgebraic(res.RookTo)
		if err1 == nil && err2 == nil {
			if rook, ok := e.state.OccupantAt(from); ok {
				if err := e.animator.Start(rook.ID, to, e.opts.MoveDuration, now); err == nil {
					return
				}
			}
		}
		e.log.Warn("castle_rook_missing", zap.String("rook_from", res.RookFrom))
	}
	e.finishMove(now)
}

func (e *Engine) promote(id board.PieceID, pt board.PieceType) {
	p, ok := e.state.Piece(id)
	if !ok {
		return
	}
	if err := e.state.SetType(id, pt); err != nil {
		e.log.Warn("promotion_failed", zap.Error(err))
		return
	}
	n, ok := e.library.Spawn(pt, p.Color)
	if !ok {
		e.log.Warn("piece_template_missing", zap.String("type", string(pt)), zap.String("color", string(p.Color)))
		return
	}
	n.SetPosition(e.opts.Mapper.SquareToWorldAt(p.Square, n.Position().Y()))
	n.Visible = true
	e.pieces.Add(n)
	if err := e.state.SetEntity(id, n); err != nil {
		e.log.Warn("promotion_failed", zap.Error(err))
	}
}

func (e *Engine) finishMove(now time.Time) {
	if e.last == nil {
		return
	}
	ev := *e.last
	ev.FEN = e.rules.FEN()
	e.last = nil
	e.lastUCI = ev.Result.UCI
	e.log.Info("move_committed",
		zap.String("uci", ev.Result.UCI),
		zap.String("san", ev.Result.SAN),
		zap.Bool("capture", ev.Result.Capture),
	)
	if e.hooks.OnMove != nil {
		e.hooks.OnMove(ev)
	}
	if e.rules.IsCheckmate() {
		e.startCheckmate(now, ev, true)
	}
}

func (e *Engine) startCheckmate(now time.Time, ev MoveEvent, notify bool) {
	loser := e.rules.CurrentTurn()
	e.checkmate = true
	var targets []*scene.Node
	if king, ok := e.state.FindKing(loser); ok {
		if n, isNode := king.Entity.(*scene.Node); isNode {
			targets = append(targets, n)
		}
	} else {
		e.log.Warn("checkmate_king_missing", zap.String("color", string(loser)))
	}
	e.effect.SetTargets(targets...)
	e.effect.Trigger(now)
	e.log.Info("checkmate", zap.String("loser", string(loser)))
	if notify && e.hooks.OnCheckmate != nil {
		e.hooks.OnCheckmate(loser, ev)
	}
}

// SetScrollProgress feeds the camera transition.
func (e *Engine) SetScrollProgress(p float64) {
	e.transition.SetProgress(p)
}

// SnapCamera jumps the camera to its desired anchor.
func (e *Engine) SnapCamera() {
	e.transition.Snap()
	e.transition.Apply(e.cam)
}

func (e *Engine) inputEnabled() bool {
	if e.closed {
		return false
	}
	return !e.opts.GateOnGameView || e.transition.AtGameView(e.opts.GameViewEpsilon)
}

// PointerMove updates the hover highlight.
func (e *Engine) PointerMove(ndc mgl64.Vec2) (picker.Hit, bool) {
	if !e.inputEnabled() {
		e.picker.Highlight.Clear()
		return picker.Hit{}, false
	}
	return e.picker.Pick(ndc, e.cam)
}

// Check verifies the board invariant and, while no move is in flight, that
// every piece entity stands over the square the board records for it.
func (e *Engine) Check() error {
	if err := e.state.Check(); err != nil {
		return err
	}
	if e.Animating() {
		return nil
	}
	for _, p := range e.state.Pieces() {
		if p.Entity == nil {
			continue
		}
		at, ok := e.opts.Mapper.WorldToSquare(p.Entity.Position())
		if !ok || at != p.Square {
			return fmt.Errorf("%s stands on %v, recorded at %v: %w", p.ID, at, p.Square, board.ErrInconsistent)
		}
	}
	return nil
}

// State exposes the board for read access.
func (e *Engine) State() *board.State { return e.state }

func (e *Engine) Camera() *camera.Perspective { return e.cam }

func (e *Engine) Effect() *effect.Controller { return e.effect }

func (e *Engine) Highlight() *picker.Highlight { return e.picker.Highlight }

func (e *Engine) Mapper() coords.Mapper { return e.opts.Mapper }

func (e *Engine) Rules() Rules { return e.rules }

func (e *Engine) Animating() bool { return e.animator.Phase() == anim.Animating }

func (e *Engine) Checkmate() bool { return e.checkmate }

// Close stops the animation and restores any swapped materials.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.animator.Cancel()
	e.effect.Release()
	e.closed = true
}
