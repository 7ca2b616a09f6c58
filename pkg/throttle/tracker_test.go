package throttle

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis creates a test Redis client for testing.
// Unit tests connect to a local Redis and skip when none is available;
// the integration suite uses testcontainers-go with a real instance.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestGetState_Empty(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}

	if state.IsSuspended() {
		t.Error("empty state should not be suspended")
	}
}

func TestUpdateFromResponse(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		retryAfter      string
		expectSuspended bool
		shouldError     bool
	}{
		{
			name:            "throttled with retry-after",
			status:          http.StatusTooManyRequests,
			retryAfter:      "30",
			expectSuspended: true,
		},
		{
			name:            "throttled without retry-after uses default",
			status:          http.StatusTooManyRequests,
			expectSuspended: true,
		},
		{
			name:   "success is a no-op",
			status: http.StatusOK,
		},
		{
			name:   "server error is a no-op",
			status: http.StatusInternalServerError,
		},
		{
			name:        "unparseable retry-after",
			status:      http.StatusTooManyRequests,
			retryAfter:  "soon",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestRedis(t)
			tracker := NewTracker(client, zerolog.Nop())
			ctx := context.Background()

			headers := http.Header{}
			if tt.retryAfter != "" {
				headers.Set("Retry-After", tt.retryAfter)
			}

			err := tracker.UpdateFromResponse(ctx, tt.status, headers)
			if tt.shouldError {
				if err == nil {
					t.Fatal("UpdateFromResponse should have failed")
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateFromResponse failed: %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState failed: %v", err)
			}

			if state.IsSuspended() != tt.expectSuspended {
				t.Errorf("IsSuspended() = %v, want %v", state.IsSuspended(), tt.expectSuspended)
			}
		})
	}
}

func TestShouldAllowRequest(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	// Open endpoint allows requests
	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if !allowed {
		t.Error("request should be allowed with no throttle state")
	}

	// A 429 opens the window and blocks subsequent requests
	headers := http.Header{}
	headers.Set("Retry-After", "60")
	if err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse failed: %v", err)
	}

	allowed, err = tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if allowed {
		t.Error("request should be blocked while throttle window is open")
	}
}

func TestThrottleWindowLapses(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	// Write a window that is already in the past.
	if err := client.Set(ctx, RedisKeySuspendedUntil, time.Now().Add(-time.Minute).Unix(), 0).Err(); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if !allowed {
		t.Error("request should be allowed after throttle window lapses")
	}
}
