package redis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-promotions/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetNXOnlyWritesOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "k", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "second", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected second SetNX to be rejected")
	}
	got, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "first" {
		t.Fatalf("expected first value to persist, got %q", got)
	}
}

func TestGetMissingIsNil(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	_, err := client.Get(context.Background(), "missing")
	if !IsNil(err) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
	if err := client.Del(context.Background(), "missing"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on uninitialized client")
	}
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected get error on uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.SettingKey("display_currency"); got != "storefront:settings:display_currency" {
		t.Fatalf("unexpected setting key %s", got)
	}
	if got := client.LockKey("scheduler", "", "production"); got != "storefront:lock:scheduler:production" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}

	prefixed := &Client{prefix: "promo-staging"}
	key := prefixed.IdempotencyKey("admin-1|POST|/api/admin/v1/discounts", "key-1")
	if !strings.HasPrefix(key, "promo-staging:idempotency:") || len(key) != len("promo-staging:idempotency:")+64 {
		t.Fatalf("unexpected idempotency key %s", key)
	}
	if key == prefixed.IdempotencyKey("admin-1|POST|/api/admin/v1/discounts", "key-2") {
		t.Fatal("different keys must not collide")
	}
	if prefixed.IdempotencyKey("a", "bc") == prefixed.IdempotencyKey("ab", "c") {
		t.Fatal("scope and key boundaries must not collide")
	}
}

func TestCompareAndDeleteOnlyRemovesOwnedValue(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	if err := client.Set(ctx, "lock", "owner-a", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	deleted, err := client.CompareAndDelete(ctx, "lock", "owner-b")
	if err != nil || deleted {
		t.Fatalf("expected foreign owner to be refused, deleted=%v err=%v", deleted, err)
	}
	deleted, err = client.CompareAndDelete(ctx, "lock", "owner-a")
	if err != nil || !deleted {
		t.Fatalf("expected owner to delete, deleted=%v err=%v", deleted, err)
	}
	if _, err := client.Get(ctx, "lock"); !IsNil(err) {
		t.Fatalf("expected lock to be gone, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 3 {
		t.Fatalf("unexpected url options %+v", opts)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

// Eval only understands compareAndDelete.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != compareAndDelete || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unsupported script"))
	}
	if m.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
