package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	jobViewsPrefix     = "jobs:v:"
	jobViewsVersionKey = "jobs:version"
)

// JobViews caches job list and count responses under a version number.
// Invalidation bumps the version so every older key is simply never read again.
type JobViews struct {
	store Store
	ttl   time.Duration
}

func NewJobViews(s Store, ttl time.Duration) *JobViews {
	return &JobViews{store: s, ttl: ttl}
}

func (v *JobViews) version(ctx context.Context) (int64, error) {
	b, err := v.store.Get(ctx, jobViewsVersionKey)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeInt(b), nil
}

func (v *JobViews) key(ver int64, view string) string {
	return fmt.Sprintf("%s%d:%s", jobViewsPrefix, ver, view)
}

// Get decodes a cached view into dst. A miss or a cache fault both return false.
func (v *JobViews) Get(ctx context.Context, view string, dst any) bool {
	ver, err := v.version(ctx)
	if err != nil {
		zap.L().Warn("job cache version read failed", zap.Error(err))
		return false
	}
	b, err := v.store.Get(ctx, v.key(ver, view))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			zap.L().Warn("job cache read failed", zap.String("view", view), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		zap.L().Warn("job cache entry unreadable", zap.String("view", view), zap.Error(err))
		return false
	}
	return true
}

func (v *JobViews) Set(ctx context.Context, view string, val any) {
	ver, err := v.version(ctx)
	if err != nil {
		return
	}
	b, err := json.Marshal(val)
	if err != nil {
		zap.L().Warn("job cache marshal failed", zap.String("view", view), zap.Error(err))
		return
	}
	if err := v.store.Set(ctx, v.key(ver, view), b, v.ttl); err != nil {
		zap.L().Warn("job cache write failed", zap.String("view", view), zap.Error(err))
	}
}

func (v *JobViews) InvalidateJobs(ctx context.Context) error {
	n, err := v.store.Incr(ctx, jobViewsVersionKey)
	if err != nil {
		return fmt.Errorf("invalidate job views: %w", err)
	}
	zap.L().Debug("job views invalidated", zap.Int64("version", n))
	return nil
}

func encodeInt(n int64) []byte { return []byte(strconv.FormatInt(n, 10)) }

func decodeInt(b []byte) int64 {
	n, _ := strconv.ParseInt(string(b), 10, 64)
	return n
}
