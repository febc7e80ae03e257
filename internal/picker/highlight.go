package picker

import (
	"github.com/park285/Cheese-Board3D/internal/coords"
)

// DefaultHighlightColor is the hover tint.
var DefaultHighlightColor = [3]float32{1.0, 0.85, 0.0}

// Highlight keeps the base color buffer and the live buffer the renderer
// reads. At most one live slot differs from its base color.
type Highlight struct {
	Color [3]float32

	base    []float32
	live    []float32
	current int
	dirty   bool
	version uint64
}

// NewHighlight copies base; it must hold one RGB triple per tile.
func NewHighlight(base []float32, color [3]float32) *Highlight {
	if len(base) != coords.Tiles*3 {
		base = BaseColors()
	}
	b := make([]float32, len(base))
	copy(b, base)
	l := make([]float32, len(base))
	copy(l, base)
	return &Highlight{Color: color, base: b, live: l, current: -1}
}

// Current is the lit tile index or -1.
func (h *Highlight) Current() int { return h.current }

// Set lights index, restoring the previously lit tile first.
func (h *Highlight) Set(index int) {
	if index < 0 || index >= coords.Tiles {
		h.Clear()
		return
	}
	if index == h.current {
		return
	}
	h.restore()
	o := index * 3
	h.live[o], h.live[o+1], h.live[o+2] = h.Color[0], h.Color[1], h.Color[2]
	h.current = index
	h.touch()
}

// Clear restores the lit tile, if any. With nothing lit it does nothing.
func (h *Highlight) Clear() {
	if h.current < 0 {
		return
	}
	h.restore()
	h.current = -1
	h.touch()
}

func (h *Highlight) restore() {
	if h.current < 0 {
		return
	}
	o := h.current * 3
	copy(h.live[o:o+3], h.base[o:o+3])
}

func (h *Highlight) touch() {
	h.dirty = true
	h.version++
}

// Live returns a copy of the displayed buffer.
func (h *Highlight) Live() []float32 {
	out := make([]float32, len(h.live))
	copy(out, h.live)
	return out
}

// Base returns a copy of the resting buffer.
func (h *Highlight) Base() []float32 {
	out := make([]float32, len(h.base))
	copy(out, h.base)
	return out
}

// Dirty reports whether the live buffer changed since the last MarkClean.
func (h *Highlight) Dirty() bool { return h.dirty }

func (h *Highlight) MarkClean() { h.dirty = false }

// Version increases on every visible change.
func (h *Highlight) Version() uint64 { return h.version }
