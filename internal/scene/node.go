// Package scene is a minimal named node graph standing in for a loaded 3D scene.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Material is the renderer-facing surface description of a mesh.
type Material struct {
	Name      string     `yaml:"name" json:"name"`
	Color     [3]float32 `yaml:"color" json:"color"`
	Roughness float32    `yaml:"roughness" json:"roughness"`
	Metalness float32    `yaml:"metalness" json:"metalness"`
}

// Clone returns an independent copy; nil stays nil.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Node is a transformable entity. Nodes carrying a Material are meshes.
type Node struct {
	Name     string
	Visible  bool
	Material *Material

	position mgl64.Vec3
	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{Name: name, Visible: true}
}

func (n *Node) Position() mgl64.Vec3 { return n.position }

func (n *Node) SetPosition(p mgl64.Vec3) { n.position = p }

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Add attaches child, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// Detach removes the node from its parent. Detaching an orphan is a no-op.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Attached reports whether the node still has a parent.
func (n *Node) Attached() bool { return n.parent != nil }

// Traverse visits n and its descendants depth-first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Find returns the first descendant (or n itself) with the given name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Clone deep-copies the subtree. Materials are cloned so that per-instance
// material swaps never leak into the template.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:     n.Name,
		Visible:  n.Visible,
		Material: n.Material.Clone(),
		position: n.position,
	}
	for _, ch := range n.children {
		cc := ch.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// Meshes returns every node in the subtree that carries a material.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Traverse(func(x *Node) {
		if x.Material != nil {
			out = append(out, x)
		}
	})
	return out
}
