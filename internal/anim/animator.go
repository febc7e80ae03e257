// Package anim drives the single in-flight piece move: an explicit state
// machine the host advances once per tick.
package anim

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"go.uber.org/zap"
)

var ErrAlreadyAnimating = errors.New("a move animation is already in flight")

// DefaultDuration is the stock move length.
const DefaultDuration = 400 * time.Millisecond

// DefaultArcHeight returns one sixth of a cell, the lift at mid-flight.
func DefaultArcHeight(cell float64) float64 { return cell / 6 }

type Phase int

const (
	Idle Phase = iota
	Animating
)

func (p Phase) String() string {
	if p == Animating {
		return "animating"
	}
	return "idle"
}

// Record is the in-flight animation.
type Record struct {
	PieceID   board.PieceID
	From      coords.Square
	To        coords.Square
	StartPos  mgl64.Vec3
	EndPos    mgl64.Vec3
	StartTime time.Time
	Duration  time.Duration
	// Capture is the destination occupant observed at start.
	Capture board.PieceID
}

// Completion describes a committed move.
type Completion struct {
	PieceID    board.PieceID
	From       coords.Square
	To         coords.Square
	CapturedID board.PieceID
	// Err is set when the board refused the commit; the animation still ends.
	Err error
}

// Animator moves one piece at a time and commits it to the board on completion.
type Animator struct {
	state     *board.State
	mapper    coords.Mapper
	arcHeight float64
	log       *zap.Logger

	phase  Phase
	active *Record
}

func New(state *board.State, mapper coords.Mapper, arcHeight float64, log *zap.Logger) *Animator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Animator{state: state, mapper: mapper, arcHeight: arcHeight, log: log}
}

func (a *Animator) Phase() Phase { return a.phase }

// Active returns a copy of the in-flight record.
func (a *Animator) Active() (Record, bool) {
	if a.active == nil {
		return Record{}, false
	}
	return *a.active, true
}

// Start begins moving id to the square. A zero duration uses DefaultDuration.
func (a *Animator) Start(id board.PieceID, to coords.Square, duration time.Duration, now time.Time) error {
	if a.phase == Animating {
		return ErrAlreadyAnimating
	}
	p, ok := a.state.Piece(id)
	if !ok {
		return fmt.Errorf("start move %s: %w", id, board.ErrUnknownID)
	}
	if !to.Valid() {
		return fmt.Errorf("start move %s: %w", id, &coords.RangeError{Input: to.String()})
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	var start mgl64.Vec3
	if p.Entity != nil {
		start = p.Entity.Position()
	} else {
		start = a.mapper.SquareToWorld(p.Square)
	}
	rec := &Record{
		PieceID:   id,
		From:      p.Square,
		To:        to,
		StartPos:  start,
		EndPos:    a.mapper.SquareToWorldAt(to, start.Y()),
		StartTime: now,
		Duration:  duration,
	}
	if occ, ok := a.state.OccupantAt(to); ok && occ.ID != id {
		rec.Capture = occ.ID
	}
	a.active = rec
	a.phase = Animating
	a.log.Debug("move_animation_start",
		zap.String("piece_id", string(id)),
		zap.String("from", p.Square.String()),
		zap.String("to", to.String()),
		zap.Duration("duration", duration),
	)
	return nil
}

// Advance positions the entity for now. It reports a Completion when the
// move reached its end and was committed.
func (a *Animator) Advance(now time.Time) (Completion, bool) {
	if a.phase != Animating || a.active == nil {
		return Completion{}, false
	}
	rec := a.active
	t := float64(now.Sub(rec.StartTime)) / float64(rec.Duration)
	t = mgl64.Clamp(t, 0, 1)
	k := t * t * (3 - 2*t)

	pos := rec.StartPos.Add(rec.EndPos.Sub(rec.StartPos).Mul(k))
	arc := 2*k - 1
	pos[1] += a.arcHeight * (1 - arc*arc)

	p, ok := a.state.Piece(rec.PieceID)
	if !ok {
		// The mover vanished (board reset); nothing to commit.
		a.clear()
		return Completion{}, false
	}
	if p.Entity != nil {
		p.Entity.SetPosition(pos)
	}
	if t < 1 {
		return Completion{}, false
	}
	if p.Entity != nil {
		p.Entity.SetPosition(rec.EndPos)
	}
	return a.commit(rec), true
}

func (a *Animator) commit(rec *Record) Completion {
	c := Completion{PieceID: rec.PieceID, From: rec.From, To: rec.To}
	if rec.Capture != "" && rec.Capture != rec.PieceID {
		if a.state.Remove(rec.Capture) {
			c.CapturedID = rec.Capture
		}
	}
	if err := a.state.Move(rec.PieceID, rec.To); err != nil {
		c.Err = fmt.Errorf("commit move %s: %w", rec.PieceID, err)
		a.log.Warn("move_commit_failed", zap.String("piece_id", string(rec.PieceID)), zap.Error(err))
	} else {
		a.log.Debug("move_committed",
			zap.String("piece_id", string(rec.PieceID)),
			zap.String("to", rec.To.String()),
			zap.String("captured_id", string(c.CapturedID)),
		)
	}
	a.clear()
	return c
}

// Cancel drops the in-flight animation without committing it.
func (a *Animator) Cancel() {
	a.clear()
}

func (a *Animator) clear() {
	a.active = nil
	a.phase = Idle
}
