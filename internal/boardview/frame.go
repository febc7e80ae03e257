package boardview

import (
	"github.com/park285/Cheese-Board3D/internal/scene"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
)

// Frame snapshots everything the renderer needs after the last tick.
func (e *Engine) Frame() boarddto.Frame {
	hl := e.picker.Highlight
	u := e.effect.Uniforms()
	f := boarddto.Frame{
		Seq:          e.seq,
		Turn:         string(e.rules.CurrentTurn()),
		FEN:          e.rules.FEN(),
		Animating:    e.Animating(),
		Highlighted:  hl.Current(),
		HighlightVer: hl.Version(),
		TileColors:   hl.Live(),
		Camera: boarddto.CameraView{
			Position: e.cam.Position,
			Target:   e.cam.Target,
			Progress: e.transition.Progress(),
			GameView: e.transition.AtGameView(e.opts.GameViewEpsilon),
		},
		Effect: boarddto.EffectView{
			Active:    u.Active,
			Time:      u.Time,
			Strength:  u.Strength,
			GlowColor: u.GlowColor,
			NoiseMap:  u.NoiseMap,
		},
		Checkmate: e.checkmate,
	}
	if sel, ok := e.Selected(); ok {
		f.Selected = sel
	}
	if e.checkmate {
		if o, ok := e.rules.(interface{ Outcome() (string, string) }); ok {
			f.Outcome, _ = o.Outcome()
		}
	}
	f.LastMove = e.lastUCI

	pieces := e.state.Pieces()
	f.Pieces = make([]boarddto.PieceView, 0, len(pieces))
	f.Outline = make([]string, 0, len(pieces))
	for _, p := range pieces {
		pv := boarddto.PieceView{
			ID:     string(p.ID),
			Type:   string(p.Type),
			Color:  string(p.Color),
			Square: e.opts.Mapper.MustAlgebraic(p.Square),
		}
		if p.Entity != nil {
			pv.Position = p.Entity.Position()
			if n, ok := p.Entity.(*scene.Node); ok {
				pv.Node = n.Name
				f.Outline = append(f.Outline, n.Name)
			}
		}
		f.Pieces = append(f.Pieces, pv)
	}
	return f
}
