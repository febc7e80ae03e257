package effect

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/Cheese-Board3D/internal/scene"
)

func kingNode() (*scene.Node, *scene.Node) {
	king := scene.NewNode("piece_king_black")
	mesh := scene.NewNode("piece_king_black_mesh")
	mesh.Material = &scene.Material{Name: "king_black", Color: [3]float32{0.1, 0.1, 0.1}, Roughness: 0.3}
	king.Add(mesh)
	return king, mesh
}

func TestTriggerAdvanceRestore(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	king, mesh := kingNode()
	original := mesh.Material
	want := *original

	c := New(Options{Duration: 5 * time.Second}, nil)
	c.SetTargets(king)
	c.Trigger(start)
	if !c.Active() || mesh.Material == original {
		t.Fatalf("trigger did not swap material")
	}

	c.Advance(start.Add(2500 * time.Millisecond))
	u := c.Uniforms()
	if u.Strength < 0.999 {
		t.Fatalf("strength at half duration = %v", u.Strength)
	}
	if u.Time != 2.5 || !u.Active {
		t.Fatalf("uniforms %+v", u)
	}

	c.Advance(start.Add(5001 * time.Millisecond))
	if c.Active() {
		t.Fatalf("effect still active after duration")
	}
	if mesh.Material != original {
		t.Fatalf("material not restored")
	}
	if diff := cmp.Diff(want, *mesh.Material); diff != "" {
		t.Fatalf("material changed (-want +got):\n%s", diff)
	}
}

func TestTriggerIsIdempotentWhileActive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	king, mesh := kingNode()
	original := mesh.Material

	c := New(Options{}, nil)
	c.SetTargets(king)
	c.Trigger(start)
	c.Advance(start.Add(time.Second))
	c.Trigger(start.Add(2 * time.Second))
	c.Advance(start.Add(3 * time.Second))
	if got := c.Uniforms().Time; got != 3 {
		t.Fatalf("second trigger restarted the clock: time=%v", got)
	}

	c.Release()
	if mesh.Material != original {
		t.Fatalf("second trigger overwrote the backup")
	}
}

func TestStrengthEnvelope(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(Options{Duration: 4 * time.Second}, nil)
	c.Trigger(start)
	tests := []struct {
		at   time.Duration
		want float64
	}{
		{0, 0},
		{time.Second, 0.7071067811865476},
		{2 * time.Second, 1},
		{3 * time.Second, 0.7071067811865476},
	}
	for _, tt := range tests {
		c.Advance(start.Add(tt.at))
		if got := c.Uniforms().Strength; got-tt.want > 1e-9 || tt.want-got > 1e-9 {
			t.Fatalf("strength at %v = %v want %v", tt.at, got, tt.want)
		}
	}
}
