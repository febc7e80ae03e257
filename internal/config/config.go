package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is read from defaults, then an optional YAML file named by
// BOARD_CONFIG_FILE, then environment variables.
type AppConfig struct {
	Orientation    string     `yaml:"orientation"`
	Cell           float64    `yaml:"cell"`
	Origin         [3]float64 `yaml:"origin"`
	TileLift       float64    `yaml:"tile_lift"`
	HighlightColor [3]float32 `yaml:"highlight_color"`

	MoveDuration time.Duration `yaml:"move_duration"`
	ArcHeight    float64       `yaml:"arc_height"`

	EffectDuration time.Duration `yaml:"effect_duration"`
	GlowColor      [3]float32    `yaml:"glow_color"`
	NoiseMap       string        `yaml:"noise_map"`

	CameraStart    [3]float64 `yaml:"camera_start"`
	CameraGame     [3]float64 `yaml:"camera_game"`
	CameraTarget   [3]float64 `yaml:"camera_target"`
	CameraRate     float64    `yaml:"camera_rate"`
	FovY           float64    `yaml:"fov_y"`
	Aspect         float64    `yaml:"aspect"`
	GateOnGameView bool       `yaml:"gate_on_game_view"`

	StartFEN  string `yaml:"start_fen"`
	SceneFile string `yaml:"scene_file"`
	TickHz    int    `yaml:"tick_hz"`

	HTTPAddr string `yaml:"http_addr"`
	WSAddr   string `yaml:"ws_addr"`

	RedisURL      string `yaml:"redis_url"`
	DatabaseURL   string `yaml:"database_url"`
	SessionID     string `yaml:"session_id"`
	SessionTTLSec int    `yaml:"session_ttl_sec"`

	SnapshotSize int `yaml:"snapshot_size"`
}

// Defaults mirror the shipped board model and camera path.
func Defaults() *AppConfig {
	return &AppConfig{
		Orientation:    "mirrored",
		Cell:           0.057888,
		Origin:         [3]float64{-0.2026083, 0.0173927, -0.2026083},
		TileLift:       0.0005,
		HighlightColor: [3]float32{1.0, 0.85, 0.0},
		MoveDuration:   400 * time.Millisecond,
		EffectDuration: 5 * time.Second,
		GlowColor:      [3]float32{1.0, 0.15, 0.05},
		NoiseMap:       "textures/noise.png",
		CameraStart:    [3]float64{-0.72, 0.27, 0.45},
		CameraGame:     [3]float64{0, 1.2, -0.01},
		CameraRate:     4,
		FovY:           30,
		Aspect:         16.0 / 9.0,
		GateOnGameView: true,
		StartFEN:       "3r1k1r/4R1Rp/p2P4/1p1n2P1/3N4/8/PPP5/2K5 w - - 0 1",
		TickHz:         60,
		HTTPAddr:       ":8080",
		WSAddr:         ":8081",
		SessionID:      "default",
		SessionTTLSec:  86400,
		SnapshotSize:   480,
	}
}

func Load() (*AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("BOARD_CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	vec := func(key string, dst *[3]float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			out, err := parseTriple(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = out
		}
	}
	color := func(key string, dst *[3]float32) {
		var tmp [3]float64
		vec(key, &tmp)
		if strings.TrimSpace(os.Getenv(key)) != "" {
			*dst = [3]float32{float32(tmp[0]), float32(tmp[1]), float32(tmp[2])}
		}
	}

	str("BOARD_ORIENTATION", &c.Orientation)
	float("BOARD_CELL", &c.Cell)
	vec("BOARD_ORIGIN", &c.Origin)
	float("BOARD_TILE_LIFT", &c.TileLift)
	color("BOARD_HIGHLIGHT_COLOR", &c.HighlightColor)
	duration("BOARD_MOVE_DURATION", &c.MoveDuration)
	float("BOARD_ARC_HEIGHT", &c.ArcHeight)
	duration("BOARD_EFFECT_DURATION", &c.EffectDuration)
	color("BOARD_GLOW_COLOR", &c.GlowColor)
	str("BOARD_NOISE_MAP", &c.NoiseMap)
	vec("CAMERA_START", &c.CameraStart)
	vec("CAMERA_GAME", &c.CameraGame)
	vec("CAMERA_TARGET", &c.CameraTarget)
	float("CAMERA_RATE", &c.CameraRate)
	float("CAMERA_FOV", &c.FovY)
	float("CAMERA_ASPECT", &c.Aspect)
	if v := strings.TrimSpace(os.Getenv("BOARD_GATE_ON_GAME_VIEW")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.GateOnGameView = b
		} else {
			errs = append(errs, fmt.Errorf("BOARD_GATE_ON_GAME_VIEW: %w", err))
		}
	}
	str("BOARD_START_FEN", &c.StartFEN)
	str("BOARD_SCENE_FILE", &c.SceneFile)
	integer("BOARD_TICK_HZ", &c.TickHz)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("WS_ADDR", &c.WSAddr)
	str("REDIS_URL", &c.RedisURL)
	str("DATABASE_URL", &c.DatabaseURL)
	str("BOARD_SESSION_ID", &c.SessionID)
	integer("BOARD_SESSION_TTL", &c.SessionTTLSec)
	integer("BOARD_SNAPSHOT_SIZE", &c.SnapshotSize)

	return errors.Join(errs...)
}

func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("want three comma-separated numbers, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, err
		}
		out[i] = f
	}
	return out, nil
}

// Validate rejects values the engine cannot run with.
func (c *AppConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Orientation)) {
	case "standard", "mirrored":
	default:
		return fmt.Errorf("orientation must be standard or mirrored, got %q", c.Orientation)
	}
	if c.Cell <= 0 {
		return errors.New("cell must be positive")
	}
	if c.MoveDuration <= 0 || c.EffectDuration <= 0 {
		return errors.New("move and effect durations must be positive")
	}
	if c.TickHz <= 0 || c.TickHz > 240 {
		return fmt.Errorf("tick rate %d out of range 1..240", c.TickHz)
	}
	if c.CameraRate <= 0 {
		return errors.New("camera rate must be positive")
	}
	if c.SessionTTLSec < 0 {
		return errors.New("session ttl must not be negative")
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return errors.New("session id is required")
	}
	return nil
}

// TickInterval is the duration of one frame.
func (c *AppConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}
