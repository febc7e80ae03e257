package scene

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	yaml "gopkg.in/yaml.v3"
)

//go:embed default_scene.yaml
var defaultFiles embed.FS

// Manifest is the YAML description of a loaded scene.
type Manifest struct {
	Name  string         `yaml:"name"`
	Nodes []ManifestNode `yaml:"nodes"`
}

type ManifestNode struct {
	Name     string         `yaml:"name"`
	Position [3]float64     `yaml:"position"`
	Visible  *bool          `yaml:"visible"`
	Material *Material      `yaml:"material"`
	Children []ManifestNode `yaml:"children"`
}

// LoadManifest decodes a manifest and builds its node tree under a root named
// after the manifest.
func LoadManifest(r io.Reader) (*Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = "scene"
	}
	root := NewNode(name)
	seen := make(map[string]bool)
	for _, mn := range m.Nodes {
		n, err := buildNode(mn, seen)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

func buildNode(mn ManifestNode, seen map[string]bool) (*Node, error) {
	name := strings.TrimSpace(mn.Name)
	if name == "" {
		return nil, fmt.Errorf("manifest node without name")
	}
	if seen[name] {
		return nil, fmt.Errorf("duplicate manifest node %q", name)
	}
	seen[name] = true
	n := NewNode(name)
	n.SetPosition(mgl64.Vec3(mn.Position))
	if mn.Visible != nil {
		n.Visible = *mn.Visible
	}
	n.Material = mn.Material.Clone()
	for _, c := range mn.Children {
		cn, err := buildNode(c, seen)
		if err != nil {
			return nil, err
		}
		n.Add(cn)
	}
	return n, nil
}

// LoadManifestFile reads a manifest from disk.
func LoadManifestFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return LoadManifest(f)
}

// DefaultScene loads the embedded manifest describing the stock chess set.
func DefaultScene() (*Node, error) {
	raw, err := defaultFiles.ReadFile("default_scene.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded scene: %w", err)
	}
	return LoadManifest(bytes.NewReader(raw))
}
