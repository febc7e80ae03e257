// Package httpapi serves the board state, a PNG snapshot and reset over fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Cheese-Board3D/internal/archive"
	"github.com/park285/Cheese-Board3D/internal/coords"
	"github.com/park285/Cheese-Board3D/internal/host"
	"github.com/park285/Cheese-Board3D/internal/rules"
	"github.com/park285/Cheese-Board3D/internal/snapshot"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	requestTimeout  = 5 * time.Second
	defaultGamesMax = 10
)

// Board is the host surface the API drives.
type Board interface {
	Frame() (boarddto.Frame, bool)
	Reset(ctx context.Context, fen string) error
	Check(ctx context.Context) error
	SessionID() string
}

type Server struct {
	board  Board
	snap   *snapshot.Renderer
	mapper coords.Mapper
	games  archive.Repository
	log    *zap.Logger
	srv    *fasthttp.Server
}

// New builds the API. games may be nil, in which case /games answers 503.
func New(b Board, snap *snapshot.Renderer, m coords.Mapper, games archive.Repository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{board: b, snap: snap, mapper: m, games: games, log: log}
	s.srv = &fasthttp.Server{
		Name:         "board3d",
		Handler:      s.Handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes a request.
func (s *Server) Handler(rc *fasthttp.RequestCtx) {
	path := string(rc.Path())
	method := string(rc.Method())
	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		s.health(rc)
	case path == "/state" && method == fasthttp.MethodGet:
		s.state(rc)
	case path == "/snapshot.png" && method == fasthttp.MethodGet:
		s.snapshotPNG(rc)
	case path == "/games" && method == fasthttp.MethodGet:
		s.recentGames(rc)
	case path == "/reset" && method == fasthttp.MethodPost:
		s.reset(rc)
	case path == "/debug/board" && method == fasthttp.MethodGet:
		s.checkBoard(rc)
	case knownPath(path):
		writeError(rc, fasthttp.StatusMethodNotAllowed, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: "method not allowed"})
	default:
		writeError(rc, fasthttp.StatusNotFound, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: "not found"})
	}
}

func knownPath(p string) bool {
	switch p {
	case "/healthz", "/state", "/snapshot.png", "/games", "/reset", "/debug/board":
		return true
	}
	return false
}

func (s *Server) health(rc *fasthttp.RequestCtx) {
	f, ok := s.board.Frame()
	if !ok {
		writeJSON(rc, fasthttp.StatusServiceUnavailable, boarddto.HealthResponse{Status: "starting"})
		return
	}
	writeJSON(rc, fasthttp.StatusOK, boarddto.HealthResponse{Status: "ok", Seq: f.Seq})
}

func (s *Server) state(rc *fasthttp.RequestCtx) {
	f, ok := s.board.Frame()
	if !ok {
		writeError(rc, fasthttp.StatusServiceUnavailable, unavailable("no frame yet"))
		return
	}
	writeJSON(rc, fasthttp.StatusOK, f)
}

func (s *Server) snapshotPNG(rc *fasthttp.RequestCtx) {
	f, ok := s.board.Frame()
	if !ok {
		writeError(rc, fasthttp.StatusServiceUnavailable, unavailable("no frame yet"))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	data, err := s.snap.RenderPNG(ctx, snapshot.FromFrame(f, s.mapper))
	if err != nil {
		s.log.Error("snapshot_render_failed", zap.Uint64("seq", f.Seq), zap.Error(err))
		writeError(rc, fasthttp.StatusInternalServerError, boarddto.DomainError{Code: boarddto.CodeInternal, Message: "render failed"})
		return
	}
	rc.SetStatusCode(fasthttp.StatusOK)
	rc.SetContentType("image/png")
	rc.Response.Header.Set("Cache-Control", "no-store")
	rc.SetBody(data)
}

func (s *Server) recentGames(rc *fasthttp.RequestCtx) {
	if s.games == nil {
		writeError(rc, fasthttp.StatusServiceUnavailable, unavailable("archive disabled"))
		return
	}
	limit := defaultGamesMax
	if raw := strings.TrimSpace(string(rc.QueryArgs().Peek("limit"))); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(rc, fasthttp.StatusBadRequest, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: "limit must be 1..100"})
			return
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	games, err := s.games.RecentGames(ctx, s.board.SessionID(), limit)
	if err != nil {
		s.log.Error("recent_games_failed", zap.Error(err))
		writeError(rc, fasthttp.StatusInternalServerError, boarddto.DomainError{Code: boarddto.CodeInternal, Message: "archive query failed", Retryable: true})
		return
	}
	if games == nil {
		games = []*boarddto.ArchivedGame{}
	}
	writeJSON(rc, fasthttp.StatusOK, games)
}

func (s *Server) reset(rc *fasthttp.RequestCtx) {
	var req boarddto.ResetRequest
	if body := rc.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(rc, fasthttp.StatusBadRequest, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: "invalid json body"})
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := s.board.Reset(ctx, req.FEN); err != nil {
		status, derr := classify(err)
		s.log.Warn("reset_failed", zap.String("fen", req.FEN), zap.Error(err))
		writeError(rc, status, derr)
		return
	}
	f, _ := s.board.Frame()
	writeJSON(rc, fasthttp.StatusOK, f)
}

func (s *Server) checkBoard(rc *fasthttp.RequestCtx) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := s.board.Check(ctx); err != nil {
		s.log.Error("board_check_failed", zap.Error(err))
		status, derr := classify(err)
		writeError(rc, status, derr)
		return
	}
	writeJSON(rc, fasthttp.StatusOK, boarddto.HealthResponse{Status: "consistent"})
}

func classify(err error) (int, boarddto.DomainError) {
	switch {
	case errors.Is(err, rules.ErrInvalidFEN):
		return fasthttp.StatusBadRequest, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: err.Error()}
	case errors.Is(err, host.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusServiceUnavailable, boarddto.DomainError{Code: boarddto.CodeUnavailable, Message: err.Error(), Retryable: true}
	default:
		return fasthttp.StatusInternalServerError, boarddto.DomainError{Code: boarddto.CodeInternal, Message: err.Error()}
	}
}

func unavailable(msg string) boarddto.DomainError {
	return boarddto.DomainError{Code: boarddto.CodeUnavailable, Message: msg, Retryable: true}
}

func writeJSON(rc *fasthttp.RequestCtx, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		rc.SetContentType("application/json")
		rc.SetBodyString(`{"code":"internal","message":"encode failed"}`)
		return
	}
	rc.SetStatusCode(status)
	rc.SetContentType("application/json")
	rc.SetBody(data)
}

func writeError(rc *fasthttp.RequestCtx, status int, e boarddto.DomainError) {
	writeJSON(rc, status, e)
}
