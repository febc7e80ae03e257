package boardview

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// ClickOutcome tells the caller what a click did.
type ClickOutcome int

const (
	ClickIgnored ClickOutcome = iota
	ClickMissed
	ClickSelected
	ClickDeselected
	ClickRejected
	ClickMoved
)

func (c ClickOutcome) String() string {
	switch c {
	case ClickMissed:
		return "missed"
	case ClickSelected:
		return "selected"
	case ClickDeselected:
		return "deselected"
	case ClickRejected:
		return "rejected"
	case ClickMoved:
		return "moved"
	}
	return "ignored"
}

// Click runs the two-click move flow. The first click picks a piece of the
// side to move; the second names the destination. Clicks during an animation,
// after checkmate, or before the camera reaches the game view are ignored.
func (e *Engine) Click(ndc mgl64.Vec2, now time.Time) ClickOutcome {
	if !e.inputEnabled() || e.Animating() || e.checkmate {
		return ClickIgnored
	}
	hit, ok := e.picker.Pick(ndc, e.cam)
	if !ok {
		if e.selected != "" {
			e.selected = ""
			return ClickDeselected
		}
		return ClickMissed
	}

	turn := e.rules.CurrentTurn()
	occ, occupied := e.state.OccupantAt(hit.Square)
	if occupied && occ.Color == turn {
		if occ.ID == e.selected {
			e.selected = ""
			return ClickDeselected
		}
		e.selected = occ.ID
		e.log.Debug("piece_selected", zap.String("square", hit.Algebraic), zap.String("piece_id", string(occ.ID)))
		return ClickSelected
	}
	if e.selected == "" {
		return ClickMissed
	}

	mover, ok := e.state.Piece(e.selected)
	e.selected = ""
	if !ok {
		return ClickRejected
	}
	from, err := e.opts.Mapper.ToAlgebraic(mover.Square)
	if err != nil {
		return ClickRejected
	}
	res, ok := e.rules.AttemptMove(from, hit.Algebraic)
	if !ok {
		e.log.Debug("move_rejected", zap.String("from", from), zap.String("to", hit.Algebraic))
		return ClickRejected
	}
	if err := e.animator.Start(mover.ID, hit.Square, e.opts.MoveDuration, now); err != nil {
		// The rules already accepted the move; the board will resync on the next load.
		e.log.Error("move_animation_failed", zap.String("uci", res.UCI), zap.Error(err))
		return ClickRejected
	}
	e.pending = &res
	return ClickMoved
}

// Selected returns the algebraic square of the selected piece, if any.
func (e *Engine) Selected() (string, bool) {
	if e.selected == "" {
		return "", false
	}
	p, ok := e.state.Piece(e.selected)
	if !ok {
		return "", false
	}
	alg, err := e.opts.Mapper.ToAlgebraic(p.Square)
	return alg, err == nil
}
