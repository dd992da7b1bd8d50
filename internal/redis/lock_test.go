package redisclient

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestDayLockKey(t *testing.T) {
	day := time.Date(2026, time.October, 19, 14, 30, 0, 0, time.UTC)
	if got := DayLockKey(day); got != "lock:day:2026-10-19" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestWithDayLock_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	locker := NewRedisDayLocker(client, time.Second)
	called := false
	err := locker.WithDayLock(context.Background(), time.Now(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "acquire day lock") {
		t.Fatalf("expected acquire error, got %v", err)
	}
	if called {
		t.Fatalf("critical section must not run without the lock")
	}
}

func TestLocalDayLocker(t *testing.T) {
	locker := NewLocalDayLocker()
	day := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	otherDay := day.AddDate(0, 0, 1)

	err := locker.WithDayLock(context.Background(), day, func(ctx context.Context) error {
		inner := locker.WithDayLock(ctx, day.Add(2*time.Hour), func(context.Context) error { return nil })
		if !errors.Is(inner, ErrLockNotAcquired) {
			t.Fatalf("same day should be locked, got %v", inner)
		}
		if err := locker.WithDayLock(ctx, otherDay, func(context.Context) error { return nil }); err != nil {
			t.Fatalf("other day should be free, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithDayLock: %v", err)
	}

	// released after fn returns
	if err := locker.WithDayLock(context.Background(), day, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("lock should be released, got %v", err)
	}
}
