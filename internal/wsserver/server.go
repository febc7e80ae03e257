// Package wsserver streams frames to websocket clients and feeds their
// pointer, scroll and reset events into the host loop.
package wsserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/park285/Cheese-Board3D/internal/boardview"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	frameBuffer  = 4
	writeTimeout = 5 * time.Second
	eventTimeout = 2 * time.Second
)

// Board is the host surface a connection drives.
type Board interface {
	Frame() (boarddto.Frame, bool)
	Subscribe(buffer int) (<-chan boarddto.Frame, func())
	PointerMove(ctx context.Context, ndc mgl64.Vec2) error
	Click(ctx context.Context, ndc mgl64.Vec2) (boardview.ClickOutcome, error)
	Scroll(ctx context.Context, progress float64) error
	Reset(ctx context.Context, fen string) error
}

type Options struct {
	PingInterval   time.Duration
	OriginPatterns []string
}

type Server struct {
	board Board
	opts  Options
	log   *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	http  *http.Server
}

func New(b Board, opts Options, log *zap.Logger) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{board: b, opts: opts, log: log, conns: make(map[*websocket.Conn]struct{})}
}

func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	s.mu.Lock()
	s.http = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	srv := s.http
	s.mu.Unlock()
	s.log.Info("ws_listen", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes every live connection and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "shutdown")
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  s.opts.OriginPatterns,
	})
	if err != nil {
		s.log.Warn("ws_accept_failed", zap.Error(err))
		return
	}
	s.track(conn, true)
	defer s.track(conn, false)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames, unsubscribe := s.board.Subscribe(frameBuffer)
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		s.writeFrames(ctx, conn, frames)
	}()
	go func() {
		defer wg.Done()
		s.pingLoop(ctx, conn)
	}()

	err = s.readEvents(ctx, conn)
	cancel()
	wg.Wait()

	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	s.log.Debug("ws_closed", zap.Error(err))
	_ = conn.Close(websocket.StatusInternalError, "closing")
}

func (s *Server) track(c *websocket.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) writeFrames(ctx context.Context, conn *websocket.Conn, frames <-chan boarddto.Frame) {
	if f, ok := s.board.Frame(); ok {
		if err := write(ctx, conn, boarddto.ServerMessage{Type: boarddto.MessageFrame, Frame: &f}); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := write(ctx, conn, boarddto.ServerMessage{Type: boarddto.MessageFrame, Frame: &f}); err != nil {
				return
			}
		}
	}
}

func (s *Server) pingLoop(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(s.opts.PingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				_ = conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (s *Server) readEvents(ctx context.Context, conn *websocket.Conn) error {
	for {
		var ev boarddto.ClientEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return err
		}
		if reply, ok := s.dispatch(ctx, ev); ok {
			if err := write(ctx, conn, reply); err != nil {
				return err
			}
		}
	}
}

// dispatch applies one event and returns the direct reply, if any.
func (s *Server) dispatch(ctx context.Context, ev boarddto.ClientEvent) (boarddto.ServerMessage, bool) {
	ectx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()
	ndc := mgl64.Vec2{ev.X, ev.Y}

	var err error
	switch ev.Type {
	case boarddto.EventPointerMove:
		err = s.board.PointerMove(ectx, ndc)
	case boarddto.EventClick:
		var out boardview.ClickOutcome
		out, err = s.board.Click(ectx, ndc)
		if err == nil {
			return boarddto.ServerMessage{Type: boarddto.MessageClick, Outcome: out.String()}, true
		}
	case boarddto.EventScroll:
		if ev.Progress < 0 || ev.Progress > 1 {
			return errorMessage(boarddto.CodeBadRequest, "progress must be within [0,1]", false), true
		}
		err = s.board.Scroll(ectx, ev.Progress)
	case boarddto.EventReset:
		if err = s.board.Reset(ectx, ev.FEN); err != nil {
			return errorMessage(boarddto.CodeBadRequest, err.Error(), false), true
		}
	default:
		return errorMessage(boarddto.CodeUnknownEvent, "unknown event type "+ev.Type, false), true
	}
	if err != nil {
		s.log.Warn("ws_event_failed", zap.String("type", ev.Type), zap.Error(err))
		return errorMessage(boarddto.CodeUnavailable, err.Error(), true), true
	}
	return boarddto.ServerMessage{}, false
}

func errorMessage(code, msg string, retryable bool) boarddto.ServerMessage {
	return boarddto.ServerMessage{
		Type:  boarddto.MessageError,
		Error: &boarddto.DomainError{Code: code, Message: msg, Retryable: retryable},
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg boarddto.ServerMessage) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, msg)
}
