// Package boardbuilder wires configuration into a running board host.
package boardbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/archive"
	"github.com/park285/Cheese-Board3D/internal/boardview"
	"github.com/park285/Cheese-Board3D/internal/config"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"github.com/park285/Cheese-Board3D/internal/effect"
	"github.com/park285/Cheese-Board3D/internal/host"
	"github.com/park285/Cheese-Board3D/internal/httpapi"
	"github.com/park285/Cheese-Board3D/internal/rules"
	"github.com/park285/Cheese-Board3D/internal/scene"
	"github.com/park285/Cheese-Board3D/internal/session"
	"github.com/park285/Cheese-Board3D/internal/snapshot"
	"github.com/park285/Cheese-Board3D/internal/wsserver"
	"go.uber.org/zap"
)

type Deps struct {
	Loop     *host.Loop
	Engine   *boardview.Engine
	Sessions *session.Store
	Archive  archive.Repository
	Snapshot *snapshot.Renderer
	HTTP     *httpapi.Server
	WS       *wsserver.Server
	Mapper   coords.Mapper
}

// New builds every component. Redis and Postgres are optional: without
// REDIS_URL the session is not persisted, without DATABASE_URL finished
// games are kept in memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := EngineOptions(cfg)
	if err != nil {
		return nil, err
	}
	d := &Deps{Mapper: opts.Mapper}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		d.Sessions, err = session.Dial(ctx, cfg.RedisURL, cfg.SessionTTL())
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
	} else {
		logger.Warn("session_store_disabled", zap.String("reason", "REDIS_URL not set"))
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := archive.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Archive = pg
	} else {
		d.Archive = archive.NewMemory()
	}

	root, err := loadScene(cfg.SceneFile)
	if err != nil {
		d.Close()
		return nil, err
	}

	r, snap := restore(ctx, cfg, d.Sessions, logger)

	var store host.SessionStore
	if d.Sessions != nil {
		store = d.Sessions
	}
	d.Loop = host.New(host.Options{
		SessionID:    cfg.SessionID,
		TickInterval: cfg.TickInterval(),
		Log:          logger.Named("host"),
	}, store, d.Archive)

	d.Engine, err = boardview.New(root, r, RulesFactory(cfg.StartFEN), opts, d.Loop.Hooks(), logger.Named("board"))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init engine: %w", err)
	}
	var (
		progress  float64
		startedAt time.Time
	)
	if snap != nil {
		progress, startedAt = snap.Progress, snap.StartedAt
	}
	d.Loop.Attach(d.Engine, progress, startedAt)

	d.Snapshot = snapshot.New(cfg.SnapshotSize, cfg.HighlightColor)
	d.HTTP = httpapi.New(d.Loop, d.Snapshot, d.Mapper, d.Archive, logger.Named("http"))
	d.WS = wsserver.New(d.Loop, wsserver.Options{}, logger.Named("ws"))
	return d, nil
}

// Close releases the stores. The loop and servers are stopped by their owners.
func (d *Deps) Close() {
	if d.Sessions != nil {
		_ = d.Sessions.Close()
	}
	if d.Archive != nil {
		_ = d.Archive.Close()
	}
}

// Mapper builds the coordinate mapper from config.
func Mapper(cfg *config.AppConfig) (coords.Mapper, error) {
	o, ok := coords.ParseOrientation(cfg.Orientation)
	if !ok {
		return coords.Mapper{}, fmt.Errorf("unknown orientation %q", cfg.Orientation)
	}
	return coords.NewMapper(cfg.Cell, mgl64.Vec3(cfg.Origin), o), nil
}

// EngineOptions maps config onto engine tunables.
func EngineOptions(cfg *config.AppConfig) (boardview.Options, error) {
	m, err := Mapper(cfg)
	if err != nil {
		return boardview.Options{}, err
	}
	return boardview.Options{
		Mapper:         m,
		TileLift:       cfg.TileLift,
		HighlightColor: cfg.HighlightColor,
		MoveDuration:   cfg.MoveDuration,
		ArcHeight:      cfg.ArcHeight,
		Effect: effect.Options{
			Duration:  cfg.EffectDuration,
			GlowColor: cfg.GlowColor,
			NoiseMap:  cfg.NoiseMap,
		},
		StartAnchor:     mgl64.Vec3(cfg.CameraStart),
		GameAnchor:      mgl64.Vec3(cfg.CameraGame),
		CameraTarget:    mgl64.Vec3(cfg.CameraTarget),
		CameraRate:      cfg.CameraRate,
		FovY:            cfg.FovY,
		Aspect:          cfg.Aspect,
		GateOnGameView:  cfg.GateOnGameView,
		GameViewEpsilon: 0.05,
	}, nil
}

// RulesFactory resets to defaultFEN when asked for an empty position.
func RulesFactory(defaultFEN string) boardview.RulesFactory {
	return func(fen string) (boardview.Rules, error) {
		if strings.TrimSpace(fen) == "" {
			fen = defaultFEN
		}
		return rules.New(fen)
	}
}

func loadScene(path string) (*scene.Node, error) {
	if strings.TrimSpace(path) == "" {
		return scene.DefaultScene()
	}
	root, err := scene.LoadManifestFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", path, err)
	}
	return root, nil
}

// restore replays the saved session, falling back to the configured start.
func restore(ctx context.Context, cfg *config.AppConfig, store *session.Store, logger *zap.Logger) (*rules.Engine, *session.Snapshot) {
	fresh := func() *rules.Engine {
		r, err := rules.New(cfg.StartFEN)
		if err != nil {
			logger.Warn("start_fen_invalid", zap.String("fen", cfg.StartFEN), zap.Error(err))
			r, _ = rules.New("")
		}
		return r
	}
	if store == nil {
		return fresh(), nil
	}
	snap, err := store.Load(ctx, cfg.SessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Warn("session_load_failed", zap.String("session_id", cfg.SessionID), zap.Error(err))
		}
		return fresh(), nil
	}
	r, err := rules.Restore(snap.StartFEN, snap.MovesUCI)
	if err != nil {
		logger.Warn("session_replay_failed", zap.String("session_id", cfg.SessionID), zap.Error(err))
		return fresh(), nil
	}
	logger.Info("session_restored",
		zap.String("session_id", cfg.SessionID),
		zap.Int("moves", len(snap.MovesUCI)),
	)
	return r, snap
}
