package session

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	in := &Snapshot{
		ID:        "default",
		StartFEN:  "startpos",
		MovesUCI:  []string{"e2e4", "e7e5"},
		FEN:       "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
		Progress:  1,
		StartedAt: at,
		UpdatedAt: at.Add(time.Minute),
	}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := s.Load(ctx, "default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingAndExpiry(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Save(ctx, &Snapshot{ID: "short"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(s.key("short")); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := s.Load(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session still loadable: %v", err)
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	s, _ := newTestStore(t, 0)
	if err := s.Save(context.Background(), &Snapshot{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()
	if err := s.Save(ctx, &Snapshot{ID: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted session loadable: %v", err)
	}
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}
