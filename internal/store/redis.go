package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errpkg "github.com/billzhuang6569/gravity/internal/errors"
	"github.com/billzhuang6569/gravity/internal/metrics"
)

// Connect opens a Redis client and verifies connectivity with a ping.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// withRetry runs a storage command under a bounded exponential backoff,
// wrapping the final failure in a StorageError. Lookup misses and business
// outcomes like ErrTaskExists are not faults and pass through untouched.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, redis.Nil) ||
			errors.Is(err, errpkg.ErrTaskExists) || errors.Is(err, errpkg.ErrTaskNotFound) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < retryAttempts-1 {
			metrics.StoreRetries.Inc()
			select {
			case <-time.After(retryBaseDelay << attempt):
			case <-ctx.Done():
				return &errpkg.StorageError{Op: op, Err: ctx.Err()}
			}
		}
	}
	return &errpkg.StorageError{Op: op, Err: fmt.Errorf("%w: %v", errpkg.ErrStoreUnavailable, err)}
}
