package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"

	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     time.Second,
	Multiplier:   2.0,
}

// retryableStates are SQLSTATE codes after which the whole transaction can be
// replayed: serialization failure, deadlock and lock_not_available.
var retryableStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
	"55P03": {},
}

// IsRetryableError reports errors after which replaying the transaction is
// safe. Connection exceptions (class 08) and errors pgconn marks as sent
// before any bytes reached the server qualify too.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if strings.HasPrefix(pgErr.Code, "08") {
		return true
	}
	_, ok := retryableStates[pgErr.Code]
	return ok
}

// RetryWithBackoff runs fn until it succeeds, fails with a non-retryable
// error or the attempts run out. operation labels logs and the retry counter.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, cfg RetryConfig, operation string, fn func() error) error {
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 && log != nil {
				log.Infof("%s succeeded after %d attempts", operation, attempt)
			}
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", operation, attempt, err)
		}

		metrics.DBRetriesTotal.WithLabelValues(operation).Inc()
		if log != nil {
			log.Warnf("%s failed (attempt %d/%d), retrying in %v: %v", operation, attempt, cfg.MaxAttempts, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: context done during retry: %w", operation, ctx.Err())
		case <-timer.C:
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
}
