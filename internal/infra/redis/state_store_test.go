package redis

import (
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"quiz-play-service/internal/domain"
)

func TestStateStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr), time.Hour).Scope("device-1")

	if _, ok, err := store.Get("timer:week-1"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set("timer:week-1", []byte("42")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("play:device-1:timer:week-1")
	if err != nil || got != "42" {
		t.Fatalf("unexpected raw value %q: %v", got, err)
	}
	if ttl := mr.TTL("play:device-1:timer:week-1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	raw, ok, err := store.Get("timer:week-1")
	if err != nil || !ok || string(raw) != "42" {
		t.Fatalf("unexpected get: %q %v %v", raw, ok, err)
	}

	if err := store.Remove("timer:week-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists("play:device-1:timer:week-1") {
		t.Fatalf("expected key removed")
	}
}

func TestStateStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr), time.Minute).Scope("device-1")
	_ = store.Set("completion:week-1", []byte(`{"score":3}`))
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get("completion:week-1"); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestStateStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewStateStore(client, time.Minute).Scope("device-1")
	if err := store.Set("timer:week-1", []byte("1")); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	if _, _, err := store.Get("timer:week-1"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
