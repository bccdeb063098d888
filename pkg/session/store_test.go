package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeKV struct {
	data    map[string]string
	expires map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, expires: map[string]time.Duration{}}
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.expires[key] = ttl
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; !ok {
		return false, nil
	}
	f.expires[key] = ttl
	return true, nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		delete(f.expires, key)
	}
	return nil
}

func (f *fakeKV) SessionKey(token string) string {
	return "duka:session:" + token
}

func TestTouchRegistersAndRefreshes(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store := &Store{kv: kv, ttl: time.Hour}
	ctx := context.Background()

	if err := store.Touch(ctx, "tok-1"); err != nil {
		t.Fatalf("first touch: %v", err)
	}
	active, err := store.Active(ctx, "tok-1")
	if err != nil || !active {
		t.Fatalf("expected active session, got active=%v err=%v", active, err)
	}

	kv.expires["duka:session:tok-1"] = time.Minute
	if err := store.Touch(ctx, "tok-1"); err != nil {
		t.Fatalf("second touch: %v", err)
	}
	if kv.expires["duka:session:tok-1"] != time.Hour {
		t.Fatal("second touch should refresh the ttl")
	}
}

func TestForgetRemovesToken(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store := &Store{kv: kv, ttl: time.Hour}
	ctx := context.Background()

	if err := store.Touch(ctx, "tok-2"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := store.Forget(ctx, "tok-2"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	active, err := store.Active(ctx, "tok-2")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Fatal("session should be gone after forget")
	}

	if err := store.Forget(ctx, "tok-2"); err != nil {
		t.Fatalf("forget should be idempotent: %v", err)
	}
	if err := store.Forget(ctx, ""); err != nil {
		t.Fatalf("forgetting empty token should be a no-op: %v", err)
	}
}

func TestTouchRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	store := &Store{kv: newFakeKV(), ttl: time.Hour}
	if err := store.Touch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestActiveUnknownToken(t *testing.T) {
	t.Parallel()

	store := &Store{kv: newFakeKV(), ttl: time.Hour}
	active, err := store.Active(context.Background(), "missing")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Fatal("unknown token should be inactive")
	}
}
