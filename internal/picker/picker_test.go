package picker

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/camera"
	"github.com/park285/Cheese-Board3D/internal/coords"
)

func gameCamera() *camera.Perspective {
	cam := camera.NewPerspective(1)
	cam.Position = camera.DefaultGameAnchor
	cam.Target = camera.DefaultTarget
	return cam
}

// litSlots lists the tiles whose live color differs from the base color.
func litSlots(h *Highlight) []int {
	base, live := h.Base(), h.Live()
	var out []int
	for i := 0; i < coords.Tiles; i++ {
		o := i * 3
		if base[o] != live[o] || base[o+1] != live[o+1] || base[o+2] != live[o+2] {
			out = append(out, i)
		}
	}
	return out
}

func TestPickSequenceKeepsSingleHighlight(t *testing.T) {
	m := coords.DefaultMapper()
	tiles := NewTiles(m, DefaultTileLift)
	p := New(m, tiles, nil)
	cam := gameCamera()
	miss := mgl64.Vec2{0.99, 0.99}

	steps := []struct {
		name  string
		index int // -1 for a miss
	}{
		{"hit e2", 12},
		{"hit a1", 0},
		{"hit same tile", 0},
		{"miss", -1},
		{"hit h8", 63},
		{"hit d5", 35},
		{"miss again", -1},
		{"miss twice", -1},
	}
	for _, st := range steps {
		ndc := miss
		if st.index >= 0 {
			ndc = cam.Project(tiles.Instances[st.index].Center)
		}
		hit, ok := p.Pick(ndc, cam)
		if (st.index >= 0) != ok {
			t.Fatalf("%s: ok=%v", st.name, ok)
		}
		lit := litSlots(p.Highlight)
		if st.index < 0 {
			if len(lit) != 0 || p.Highlight.Current() != -1 {
				t.Fatalf("%s: lit tiles %v after miss", st.name, lit)
			}
			continue
		}
		if hit.Index != st.index {
			t.Fatalf("%s: hit index %d want %d", st.name, hit.Index, st.index)
		}
		if len(lit) != 1 || lit[0] != st.index {
			t.Fatalf("%s: lit tiles %v want [%d]", st.name, lit, st.index)
		}
	}
}

func TestPickReportsAlgebraic(t *testing.T) {
	m := coords.DefaultMapper()
	tiles := NewTiles(m, DefaultTileLift)
	p := New(m, tiles, nil)
	cam := gameCamera()

	sq, err := m.FromAlgebraic("e4")
	if err != nil {
		t.Fatalf("FromAlgebraic: %v", err)
	}
	idx := sq.Index()
	hit, ok := p.Pick(cam.Project(tiles.Instances[idx].Center), cam)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.Algebraic != "e4" || hit.Square != sq {
		t.Fatalf("hit %+v", hit)
	}
	if hit.World != tiles.Instances[idx].Center {
		t.Fatalf("world %v, want tile centre %v", hit.World, tiles.Instances[idx].Center)
	}

	corner := tiles.Instances[idx].Center.Add(mgl64.Vec3{m.Cell * 0.3, 0, -m.Cell * 0.2})
	hit, ok = p.Pick(cam.Project(corner), cam)
	if !ok || hit.Algebraic != "e4" {
		t.Fatalf("off-centre pick %+v ok=%v", hit, ok)
	}
	if hit.World != tiles.Instances[idx].Center {
		t.Fatalf("off-centre pick reported %v", hit.World)
	}
}

func TestMissWithoutHighlightIsNoop(t *testing.T) {
	m := coords.DefaultMapper()
	p := New(m, NewTiles(m, DefaultTileLift), nil)
	cam := gameCamera()

	if _, ok := p.Pick(mgl64.Vec2{-0.99, 0.99}, cam); ok {
		t.Fatalf("corner should miss")
	}
	if p.Highlight.Dirty() || p.Highlight.Version() != 0 {
		t.Fatalf("miss with nothing lit marked buffer dirty")
	}

	p.Pick(cam.Project(p.Tiles.Instances[20].Center), cam)
	if !p.Highlight.Dirty() {
		t.Fatalf("hit should dirty the buffer")
	}
	p.Highlight.MarkClean()
	v := p.Highlight.Version()
	p.Pick(cam.Project(p.Tiles.Instances[20].Center), cam)
	if p.Highlight.Dirty() || p.Highlight.Version() != v {
		t.Fatalf("re-hitting the lit tile should not dirty the buffer")
	}
}

func TestNilTilesMiss(t *testing.T) {
	m := coords.DefaultMapper()
	p := New(m, nil, nil)
	p.Highlight.Set(5)
	if _, ok := p.Pick(mgl64.Vec2{}, gameCamera()); ok {
		t.Fatalf("pick without tiles must miss")
	}
	if p.Highlight.Current() != -1 || len(litSlots(p.Highlight)) != 0 {
		t.Fatalf("miss must clear highlight")
	}
}

func TestBaseColorsCheckered(t *testing.T) {
	base := BaseColors()
	if len(base) != 64*3 {
		t.Fatalf("len %d", len(base))
	}
	if base[0] != LightTile[0] || base[3] != DarkTile[0] || base[8*3] != DarkTile[0] || base[9*3] != LightTile[0] {
		t.Fatalf("pattern wrong: %v", base[:30])
	}
}
