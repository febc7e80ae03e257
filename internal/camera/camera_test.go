package camera

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTransitionConverges(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		want     mgl64.Vec3
		from     mgl64.Vec3
	}{
		{"to start anchor", 0, DefaultStartAnchor, DefaultGameAnchor},
		{"to game anchor", 1, DefaultGameAnchor, DefaultStartAnchor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransition(DefaultStartAnchor, DefaultGameAnchor, DefaultTarget, DefaultRate)
			tr.SetProgress(1 - tt.progress)
			tr.Snap()
			if !tr.Current().ApproxEqual(tt.from) {
				t.Fatalf("snap failed: %v", tr.Current())
			}
			tr.SetProgress(tt.progress)
			prev := tr.Current().Sub(tt.want).Len()
			for i := 0; i < 240; i++ {
				tr.Advance(16 * time.Millisecond)
				d := tr.Current().Sub(tt.want).Len()
				if !(d < prev) {
					t.Fatalf("frame %d: distance %v did not decrease from %v", i, d, prev)
				}
				prev = d
			}
			if prev > 1e-3 {
				t.Fatalf("did not converge, remaining %v", prev)
			}
		})
	}
}

func TestTransitionFrameRateIndependent(t *testing.T) {
	a := NewTransition(DefaultStartAnchor, DefaultGameAnchor, DefaultTarget, DefaultRate)
	b := NewTransition(DefaultStartAnchor, DefaultGameAnchor, DefaultTarget, DefaultRate)
	a.SetProgress(1)
	b.SetProgress(1)
	for i := 0; i < 60; i++ {
		a.Advance(time.Second / 60)
	}
	for i := 0; i < 30; i++ {
		b.Advance(time.Second / 30)
	}
	if d := a.Current().Sub(b.Current()).Len(); d > 1e-6 {
		t.Fatalf("60fps and 30fps diverged by %v", d)
	}
}

func TestSetProgressSmoothing(t *testing.T) {
	tr := NewTransition(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, DefaultTarget, 1)
	tr.SetProgress(0.25)
	want := 0.25 * 0.25 * (3 - 0.5)
	if math.Abs(tr.Desired().X()-want) > 1e-12 {
		t.Fatalf("desired x = %v want %v", tr.Desired().X(), want)
	}
	tr.SetProgress(7)
	if tr.Desired().X() != 1 {
		t.Fatalf("progress not clamped: %v", tr.Desired())
	}
	if ScrollProgress(50, 200) != 0.25 || ScrollProgress(-5, 10) != 0 || ScrollProgress(5, 0) != 1 {
		t.Fatalf("ScrollProgress wrong")
	}
}

func TestApplyAndGameView(t *testing.T) {
	tr := NewTransition(DefaultStartAnchor, DefaultGameAnchor, DefaultTarget, DefaultRate)
	cam := NewPerspective(1)
	tr.Apply(cam)
	if cam.Position != DefaultStartAnchor || cam.Target != DefaultTarget {
		t.Fatalf("Apply wrote %v -> %v", cam.Position, cam.Target)
	}
	if tr.AtGameView(0.01) {
		t.Fatalf("start anchor reported as game view")
	}
	tr.SetProgress(1)
	tr.Snap()
	if !tr.AtGameView(1e-9) {
		t.Fatalf("snapped anchor should be at game view")
	}
}

func TestRayThroughCentreHitsTarget(t *testing.T) {
	cam := NewPerspective(1.5)
	cam.Position = mgl64.Vec3{0, 2, 2}
	cam.Target = mgl64.Vec3{0, 0, 0}
	r := cam.Ray(mgl64.Vec2{0, 0})
	want := cam.Target.Sub(cam.Position).Normalize()
	if !r.Direction.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("centre ray %v want %v", r.Direction, want)
	}
	p := mgl64.Vec3{0.3, 0, -0.2}
	ndc := cam.Project(p)
	r = cam.Ray(ndc)
	// distance from p to the ray line
	v := p.Sub(r.Origin)
	closest := r.At(v.Dot(r.Direction))
	if d := closest.Sub(p).Len(); d > 1e-6 {
		t.Fatalf("ray through projected point misses it by %v", d)
	}
}
