package camera

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	DefaultStartAnchor = mgl64.Vec3{-0.72, 0.27, 0.45}
	DefaultGameAnchor  = mgl64.Vec3{0, 1.2, -0.01}
	DefaultTarget      = mgl64.Vec3{0, 0, 0}
)

// DefaultRate is the smoothing rate in 1/s.
const DefaultRate = 4.0

// Transition eases the camera anchor between the intro view and the game view.
// Progress comes from outside (scroll position); the anchor chases the derived
// desired position with a frame-rate independent exponential approach.
type Transition struct {
	StartAnchor mgl64.Vec3
	GameAnchor  mgl64.Vec3
	Target      mgl64.Vec3
	Rate        float64

	current  mgl64.Vec3
	desired  mgl64.Vec3
	progress float64
}

// NewTransition starts at rest on the start anchor.
func NewTransition(start, game, target mgl64.Vec3, rate float64) *Transition {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Transition{
		StartAnchor: start,
		GameAnchor:  game,
		Target:      target,
		Rate:        rate,
		current:     start,
		desired:     start,
	}
}

func (t *Transition) Current() mgl64.Vec3 { return t.current }
func (t *Transition) Desired() mgl64.Vec3 { return t.desired }

// Progress is the smoothed progress last applied.
func (t *Transition) Progress() float64 { return t.progress }

// SetProgress clamps p to [0,1], applies the cubic ease and recomputes the
// desired anchor.
func (t *Transition) SetProgress(p float64) {
	p = mgl64.Clamp(p, 0, 1)
	s := p * p * (3 - 2*p)
	t.progress = s
	t.desired = lerp(t.StartAnchor, t.GameAnchor, s)
}

// Snap jumps straight to the desired anchor.
func (t *Transition) Snap() { t.current = t.desired }

// Advance moves the anchor toward the desired position.
func (t *Transition) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	alpha := 1 - math.Exp(-t.Rate*dt.Seconds())
	t.current = lerp(t.current, t.desired, alpha)
}

// Apply writes the anchor and the fixed look target to cam.
func (t *Transition) Apply(cam *Perspective) {
	if cam == nil {
		return
	}
	cam.Position = t.current
	cam.Target = t.Target
}

// AtGameView reports whether the anchor has settled near the game view.
func (t *Transition) AtGameView(eps float64) bool {
	return t.current.Sub(t.GameAnchor).Len() <= eps
}

// ScrollProgress converts a scroll offset into [0,1] progress over span.
func ScrollProgress(offset, span float64) float64 {
	if span <= 0 {
		if offset > 0 {
			return 1
		}
		return 0
	}
	return mgl64.Clamp(offset/span, 0, 1)
}

func lerp(a, b mgl64.Vec3, k float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(k))
}
