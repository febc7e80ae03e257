package boardview

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/anim"
	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/camera"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"github.com/park285/Cheese-Board3D/internal/effect"
	"github.com/park285/Cheese-Board3D/internal/picker"
	"github.com/park285/Cheese-Board3D/internal/rules"
)

// Rules is the rules collaborator. The engine never judges legality itself.
type Rules interface {
	AttemptMove(from, to string) (rules.MoveResult, bool)
	CurrentTurn() board.Color
	IsCheckmate() bool
	FEN() string
	Layout(m coords.Mapper) (board.Layout, error)
}

// RulesFactory builds a fresh rules collaborator for a FEN.
type RulesFactory func(fen string) (Rules, error)

// DefaultRulesFactory uses the corentings/chess adapter.
func DefaultRulesFactory(fen string) (Rules, error) {
	return rules.New(fen)
}

// Options are the tunables of an Engine. Zero fields take defaults.
type Options struct {
	Mapper         coords.Mapper
	TileLift       float64
	HighlightColor [3]float32
	MoveDuration   time.Duration
	ArcHeight      float64
	Effect         effect.Options

	StartAnchor  mgl64.Vec3
	GameAnchor   mgl64.Vec3
	CameraTarget mgl64.Vec3
	CameraRate   float64
	FovY         float64
	Aspect       float64

	// GateOnGameView drops pointer input until the camera settles at the game view.
	GateOnGameView  bool
	GameViewEpsilon float64

	// Clock stamps effects started outside a tick. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions matches the stock board model and camera path.
func DefaultOptions() Options {
	m := coords.DefaultMapper()
	return Options{
		Mapper:          m,
		TileLift:        picker.DefaultTileLift,
		HighlightColor:  picker.DefaultHighlightColor,
		MoveDuration:    anim.DefaultDuration,
		ArcHeight:       anim.DefaultArcHeight(m.Cell),
		Effect:          effect.Options{Duration: effect.DefaultDuration, GlowColor: effect.DefaultGlowColor, NoiseMap: effect.DefaultNoiseMap},
		StartAnchor:     camera.DefaultStartAnchor,
		GameAnchor:      camera.DefaultGameAnchor,
		CameraTarget:    camera.DefaultTarget,
		CameraRate:      camera.DefaultRate,
		FovY:            30,
		Aspect:          16.0 / 9.0,
		GateOnGameView:  true,
		GameViewEpsilon: 0.05,
		Clock:           time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Mapper.Cell <= 0 {
		o.Mapper = d.Mapper
	}
	if o.MoveDuration <= 0 {
		o.MoveDuration = d.MoveDuration
	}
	if o.ArcHeight <= 0 {
		o.ArcHeight = anim.DefaultArcHeight(o.Mapper.Cell)
	}
	if o.HighlightColor == ([3]float32{}) {
		o.HighlightColor = d.HighlightColor
	}
	if o.StartAnchor == (mgl64.Vec3{}) && o.GameAnchor == (mgl64.Vec3{}) {
		o.StartAnchor, o.GameAnchor, o.CameraTarget = d.StartAnchor, d.GameAnchor, d.CameraTarget
	}
	if o.CameraRate <= 0 {
		o.CameraRate = d.CameraRate
	}
	if o.FovY <= 0 {
		o.FovY = d.FovY
	}
	if o.Aspect <= 0 {
		o.Aspect = d.Aspect
	}
	if o.GameViewEpsilon <= 0 {
		o.GameViewEpsilon = d.GameViewEpsilon
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}
