package redis

import (
	"context"
	"fmt"
	"time"

	"travel-ai-planner/internal/domain"
)

// RateLimiter is a fixed-window counter used to throttle plan
// submissions per user across process restarts.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one submission against the window. Returns
// domain.ErrRateLimited once the window's budget is spent; any other
// error means the limiter backend is unavailable.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) error {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return err
		}
	}

	if count > int64(limit) {
		return domain.ErrRateLimited
	}
	return nil
}

func SubmissionKey(userID string) string {
	return fmt.Sprintf("rate_limit:submit:%s", userID)
}
