package scene

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/park285/Cheese-Board3D/internal/board"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"go.uber.org/zap"
)

// PieceName is the naming convention of piece nodes: piece_<type>_<color>[_NN].
func PieceName(pt board.PieceType, c board.Color, index int) string {
	return fmt.Sprintf("piece_%s_%s_%02d", pt, c, index)
}

// ParseName decodes a piece node name. Names without an instance suffix are instance 1.
func ParseName(name string) (board.PieceType, board.Color, int, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(name)), "_")
	if len(parts) != 3 && len(parts) != 4 {
		return "", "", 0, false
	}
	if parts[0] != "piece" {
		return "", "", 0, false
	}
	pt := board.PieceType(parts[1])
	c := board.Color(parts[2])
	if !pt.Valid() || !c.Valid() {
		return "", "", 0, false
	}
	index := 1
	if len(parts) == 4 {
		n, err := strconv.Atoi(parts[3])
		if err != nil || n < 0 {
			return "", "", 0, false
		}
		index = n
	}
	return pt, c, index, true
}

type key struct {
	Type  board.PieceType
	Color board.Color
}

type instance struct {
	node  *Node
	index int
}

// Library indexes the piece nodes of a scene by (type, color).
type Library struct {
	log       *zap.Logger
	templates map[key]*Node
	instances map[key][]instance
}

// NewLibrary walks root and indexes every node whose name follows the piece
// convention. The lowest-numbered instance of each kind is cloned as the
// pristine template.
func NewLibrary(root *Node, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Library{
		log:       log,
		templates: make(map[key]*Node),
		instances: make(map[key][]instance),
	}
	if root == nil {
		return l
	}
	root.Traverse(func(n *Node) {
		pt, c, idx, ok := ParseName(n.Name)
		if !ok {
			return
		}
		k := key{pt, c}
		l.instances[k] = append(l.instances[k], instance{node: n, index: idx})
	})
	for k, list := range l.instances {
		sort.Slice(list, func(i, j int) bool { return list[i].index < list[j].index })
		l.templates[k] = list[0].node.Clone()
	}
	return l
}

// HasTemplate reports whether pieces of this kind can be produced.
func (l *Library) HasTemplate(pt board.PieceType, c board.Color) bool {
	_, ok := l.templates[key{pt, c}]
	return ok
}

// Spawn clones the template of a kind under the next free instance name.
// The clone is tracked like any discovered instance but not attached anywhere.
func (l *Library) Spawn(pt board.PieceType, c board.Color) (*Node, bool) {
	k := key{pt, c}
	tmpl, ok := l.templates[k]
	if !ok {
		return nil, false
	}
	list := l.instances[k]
	idx := 1
	if len(list) > 0 {
		idx = list[len(list)-1].index + 1
	}
	n := tmpl.Clone()
	n.Name = PieceName(pt, c, idx)
	l.instances[k] = append(list, instance{node: n, index: idx})
	return n, true
}

// Populate matches layout slots to piece nodes and places them under parent.
// Slots are served by existing instances in index order, then by template
// clones. Slots whose kind has no template are logged and skipped. Instances
// left without a slot are hidden. The returned layout carries the entities.
func (l *Library) Populate(layout board.Layout, m coords.Mapper, parent *Node) board.Layout {
	used := make(map[*Node]bool)
	next := make(map[key]int)
	out := make(board.Layout, 0, len(layout))

	for _, pl := range layout {
		k := key{pl.Type, pl.Color}
		var n *Node
		list := l.instances[k]
		if i := next[k]; i < len(list) {
			n = list[i].node
			next[k] = i + 1
		} else {
			if !l.HasTemplate(pl.Type, pl.Color) {
				l.log.Warn("piece_template_missing",
					zap.String("type", string(pl.Type)),
					zap.String("color", string(pl.Color)),
					zap.String("square", pl.Square.String()),
				)
				continue
			}
			n, _ = l.Spawn(pl.Type, pl.Color)
			next[k] = len(l.instances[k])
		}
		used[n] = true
		n.SetPosition(m.SquareToWorldAt(pl.Square, n.Position().Y()))
		n.Visible = true
		if parent != nil {
			parent.Add(n)
		}
		out = append(out, board.Placement{Type: pl.Type, Color: pl.Color, Square: pl.Square, Entity: n})
	}

	hidden := 0
	for _, list := range l.instances {
		for _, inst := range list {
			if !used[inst.node] {
				inst.node.Visible = false
				hidden++
			}
		}
	}
	l.log.Debug("scene_populated",
		zap.Int("slots", len(layout)),
		zap.Int("placed", len(out)),
		zap.Int("hidden", hidden),
	)
	return out
}
