// Package effect runs the timed checkmate glow: it swaps the materials of an
// affected set of meshes and restores them when the effect ends.
package effect

import (
	"math"
	"time"

	"github.com/park285/Cheese-Board3D/internal/scene"
	"go.uber.org/zap"
)

const DefaultDuration = 5 * time.Second

var DefaultGlowColor = [3]float32{1.0, 0.15, 0.05}

// DefaultNoiseMap names the noise texture the renderer samples.
const DefaultNoiseMap = "textures/noise.png"

// Uniforms are the time-varying parameters handed to the renderer.
type Uniforms struct {
	Time      float64    `json:"time"`
	Strength  float64    `json:"strength"`
	Active    bool       `json:"active"`
	GlowColor [3]float32 `json:"glowColor"`
	NoiseMap  string     `json:"noiseMap"`
}

type Options struct {
	Duration  time.Duration
	GlowColor [3]float32
	NoiseMap  string
}

// Controller is Inactive until Trigger and returns to Inactive on its own
// once Duration has elapsed.
type Controller struct {
	opts     Options
	material *scene.Material
	log      *zap.Logger

	targets  []*scene.Node
	backup   map[*scene.Node]*scene.Material
	active   bool
	start    time.Time
	uniforms Uniforms
}

func New(opts Options, log *zap.Logger) *Controller {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.NoiseMap == "" {
		opts.NoiseMap = DefaultNoiseMap
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		opts:     opts,
		material: &scene.Material{Name: "checkmate_glow", Color: opts.GlowColor, Roughness: 0.4},
		log:      log,
		backup:   make(map[*scene.Node]*scene.Material),
	}
	c.resetUniforms()
	return c
}

// SetTargets replaces the affected set. Ignored while active.
func (c *Controller) SetTargets(nodes ...*scene.Node) {
	if c.active {
		return
	}
	c.targets = c.targets[:0]
	for _, n := range nodes {
		if n != nil {
			c.targets = append(c.targets, n)
		}
	}
}

func (c *Controller) Active() bool       { return c.active }
func (c *Controller) Uniforms() Uniforms { return c.uniforms }

// Trigger starts the effect. A second trigger while active does nothing.
func (c *Controller) Trigger(now time.Time) {
	if c.active {
		return
	}
	swapped := 0
	for _, t := range c.targets {
		for _, mesh := range t.Meshes() {
			if _, saved := c.backup[mesh]; !saved {
				c.backup[mesh] = mesh.Material
			}
			mesh.Material = c.material
			swapped++
		}
	}
	c.active = true
	c.start = now
	c.resetUniforms()
	c.uniforms.Active = true
	c.log.Info("checkmate_effect_start", zap.Int("meshes", swapped), zap.Duration("duration", c.opts.Duration))
}

// Advance updates the uniforms and ends the effect after Duration.
func (c *Controller) Advance(now time.Time) {
	if !c.active {
		return
	}
	elapsed := now.Sub(c.start)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > c.opts.Duration {
		c.Release()
		return
	}
	frac := math.Min(1, float64(elapsed)/float64(c.opts.Duration))
	c.uniforms.Time = elapsed.Seconds()
	c.uniforms.Strength = math.Sin(math.Pi * frac)
}

// Release restores every swapped material immediately.
func (c *Controller) Release() {
	for mesh, m := range c.backup {
		mesh.Material = m
	}
	restored := len(c.backup)
	c.backup = make(map[*scene.Node]*scene.Material)
	wasActive := c.active
	c.active = false
	c.resetUniforms()
	if wasActive {
		c.log.Info("checkmate_effect_end", zap.Int("restored", restored))
	}
}

func (c *Controller) resetUniforms() {
	c.uniforms = Uniforms{GlowColor: c.opts.GlowColor, NoiseMap: c.opts.NoiseMap}
}
