package boardclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/Cheese-Board3D/pkg/boarddto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type StreamState int

const (
	StreamDisconnected StreamState = iota
	StreamConnecting
	StreamConnected
	StreamReconnecting
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamConnecting:
		return "connecting"
	case StreamConnected:
		return "connected"
	case StreamReconnecting:
		return "reconnecting"
	case StreamFailed:
		return "failed"
	}
	return "disconnected"
}

type MessageCallback func(msg *boarddto.ServerMessage)

// Stream follows the host's websocket feed and reconnects with backoff.
type Stream struct {
	url string
	log *zap.Logger

	mu    sync.RWMutex
	conn  *websocket.Conn
	state StreamState
	cbs   []MessageCallback

	maxReconnect int
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewStream(wsURL string, maxReconnect int, log *zap.Logger) *Stream {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stream{url: wsURL, log: log, maxReconnect: maxReconnect, stopCh: make(chan struct{})}
}

// OnMessage registers a callback. Callbacks run on the reader goroutine.
func (s *Stream) OnMessage(cb MessageCallback) {
	s.mu.Lock()
	s.cbs = append(s.cbs, cb)
	s.mu.Unlock()
}

func (s *Stream) State() StreamState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Stream) setState(st StreamState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.log.Debug("stream_state", zap.String("state", st.String()))
}

func (s *Stream) Connect(ctx context.Context) error {
	if st := s.State(); st == StreamConnected || st == StreamConnecting {
		return nil
	}
	s.setState(StreamConnecting)
	if err := s.dial(ctx); err != nil {
		s.setState(StreamFailed)
		return err
	}
	return nil
}

func (s *Stream) dial(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dctx, s.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return err
	}
	if s.stopping() {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return errors.New("stream closed")
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.setState(StreamConnected)
	s.wg.Add(1)
	go s.listen(conn)
	return nil
}

func (s *Stream) listen(conn *websocket.Conn) {
	defer s.wg.Done()
	for {
		var msg boarddto.ServerMessage
		if err := wsjson.Read(context.Background(), conn, &msg); err != nil {
			if s.stopping() {
				return
			}
			s.log.Warn("stream_read_failed", zap.Error(err))
			_ = conn.Close(websocket.StatusGoingAway, "reconnect")
			s.reconnect()
			return
		}
		s.mu.RLock()
		cbs := append([]MessageCallback(nil), s.cbs...)
		s.mu.RUnlock()
		for _, cb := range cbs {
			cb(&msg)
		}
	}
}

func (s *Stream) reconnect() {
	if s.maxReconnect <= 0 {
		s.setState(StreamDisconnected)
		return
	}
	s.setState(StreamReconnecting)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for attempt := 1; attempt <= s.maxReconnect; attempt++ {
			select {
			case <-s.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			if err := s.dial(context.Background()); err == nil {
				return
			}
		}
		s.setState(StreamFailed)
	}()
}

// Send writes one client event.
func (s *Stream) Send(ctx context.Context, ev boarddto.ClientEvent) error {
	s.mu.RLock()
	conn, st := s.conn, s.state
	s.mu.RUnlock()
	if conn == nil || st != StreamConnected {
		return errors.New("stream not connected")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, ev)
}

func (s *Stream) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		s.setState(StreamDisconnected)
		return nil
	}
}

func (s *Stream) stopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}
