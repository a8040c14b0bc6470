package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/talentline/apiserver/config"
)

func TestNew_Validation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	if _, err := New(nil, 1, time.Minute); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := New(client, 0, time.Minute); err == nil {
		t.Fatal("expected error for zero attempts")
	}
	if _, err := New(client, 1, 0); err == nil {
		t.Fatal("expected error for zero window")
	}
	if _, err := New(client, 5, time.Minute); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		count     int64
		ttl       time.Duration
		allowed   bool
		remaining int
		retry     time.Duration
	}{
		{"first hit", 1, time.Minute, true, 2, 0},
		{"at limit", 3, 30 * time.Second, true, 0, 0},
		{"over limit", 4, 30 * time.Second, false, 0, 30 * time.Second},
		{"missing ttl", 9, -1, false, 0, time.Minute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := decide(tc.count, tc.ttl, 3, time.Minute)
			if got.Allowed != tc.allowed || got.Remaining != tc.remaining || got.RetryAfter != tc.retry {
				t.Fatalf("decide = %+v", got)
			}
		})
	}
}

func TestLimiter_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l, err := New(client, 1, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := l.key("login", "10.0.0.1"); got != "ratelimit:login:10.0.0.1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestLimiter_AllowUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	l, err := New(client, 1, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := l.Allow(context.Background(), "login", "10.0.0.1"); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}

func TestConnect_Disabled(t *testing.T) {
	client, err := Connect(context.Background(), config.RedisConfig{})
	if err != nil || client != nil {
		t.Fatalf("Connect = %v, %v; want nil, nil", client, err)
	}
}
