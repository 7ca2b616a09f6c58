package throttle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	sbThrottleSuspendedSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sb_mgmt_throttle_suspended_seconds",
		Help: "Seconds remaining in the current management throttle window",
	})

	sbThrottleHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sb_mgmt_throttle_hits_total",
		Help: "Total number of 429 responses observed from the management endpoint",
	})

	sbThrottleBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sb_mgmt_throttle_blocks_total",
		Help: "Total number of requests blocked while the throttle window was open",
	})
)

// Tracker monitors management endpoint throttling and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new throttle tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current throttle state from Redis.
// Returns a default open state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	suspendedUnix, err := t.redis.Get(ctx, RedisKeySuspendedUntil).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get suspended until: %w", err)
	}

	if err == redis.Nil {
		t.logger.Debug().Msg("No throttle state in Redis, endpoint assumed open")
		return &State{LastUpdate: time.Now()}, nil
	}

	lastStatus, err := t.redis.Get(ctx, RedisKeyLastStatus).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last status: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return &State{
		SuspendedUntil: time.Unix(suspendedUnix, 0),
		LastStatus:     lastStatus,
		LastUpdate:     lastUpdate,
	}, nil
}

// UpdateFromResponse records the outcome of a management request.
// Only 429 responses open a throttle window; everything else is a no-op.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) error {
	if status != http.StatusTooManyRequests {
		return nil
	}

	retryAfter := DefaultRetryAfter
	if raStr := headers.Get("Retry-After"); raStr != "" {
		seconds, err := strconv.Atoi(raStr)
		if err != nil {
			return fmt.Errorf("parse Retry-After header: %w", err)
		}
		retryAfter = time.Duration(seconds) * time.Second
	}

	now := time.Now()
	state := &State{
		SuspendedUntil: now.Add(retryAfter),
		LastStatus:     status,
		LastUpdate:     now,
	}

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// Store in Redis atomically
	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeySuspendedUntil, state.SuspendedUntil.Unix(), 0)
	pipe.Set(ctx, RedisKeyLastStatus, status, 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store throttle state in redis: %w", err)
	}

	sbThrottleHitsTotal.Inc()
	sbThrottleSuspendedSeconds.Set(retryAfter.Seconds())

	t.logger.Warn().
		Int("status", status).
		Dur("retry_after", retryAfter).
		Time("suspended_until", state.SuspendedUntil).
		Msg("Management endpoint throttling - suspending requests")

	return nil
}

// ShouldAllowRequest checks if a request should be dispatched.
// Returns false while a throttle window opened by a previous 429 is active.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get throttle state: %w", err)
	}

	if state.IsSuspended() {
		waitDuration := state.TimeUntilResume()

		t.logger.Warn().
			Dur("wait_duration", waitDuration).
			Time("suspended_until", state.SuspendedUntil).
			Msg("Throttle window open - blocking request")

		sbThrottleBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}
