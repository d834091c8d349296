package featurekit

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func (s *Service) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	return dbkit.WithErr1(err, "LogAudit").Err()
}

// SoftDeleteWithRetry soft-deletes with automatic retry for transient
// storage errors (connection drops, deadlocks). Non-transient failures are
// returned immediately.
func (s *Service) SoftDeleteWithRetry(ctx context.Context, entityType, id string) (*CascadeResult, error) {
	return s.cascadeWithRetry(ctx, entityType, id, opSoftDelete, 3)
}

// RestoreWithRetry restores with automatic retry for transient storage errors.
func (s *Service) RestoreWithRetry(ctx context.Context, entityType, id string) (*CascadeResult, error) {
	return s.cascadeWithRetry(ctx, entityType, id, opRestore, 3)
}

func (s *Service) cascadeWithRetry(ctx context.Context, entityType, id string, op cascadeOp, maxAttempts int) (*CascadeResult, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var result *CascadeResult
		var err error
		if op == opRestore {
			result, err = s.Restore(ctx, entityType, id)
		} else {
			result, err = s.SoftDelete(ctx, entityType, id)
		}
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Don't retry on non-transient errors
		if !isTransientStorageError(err) {
			return nil, err
		}

		// If this is the last attempt, don't wait
		if attempt == maxAttempts-1 {
			break
		}

		// Exponential backoff with jitter
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(backoff) * 0.1 * (0.5 + rand.Float64()))
		time.Sleep(backoff + jitter)
	}

	return nil, lastErr
}

// GetTransactionMetrics returns the current transaction performance metrics.
func (s *Service) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets all transaction metrics.
func (s *Service) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy checks if transaction performance is within
// acceptable thresholds.
func (s *Service) IsTransactionHealthy() bool {
	metrics := s.txMonitor.getMetrics()

	// If we have very few transactions, consider it healthy
	if metrics.TotalTransactions < 10 {
		return true
	}

	// Check failure rate (should be less than 5%)
	failureRate := float64(metrics.FailedTransactions) / float64(metrics.TotalTransactions)
	if failureRate > 0.05 {
		return false
	}

	// Check average duration (should be less than 1 second)
	if metrics.AverageDuration > time.Second {
		return false
	}

	return true
}

// isTransientStorageError checks if an error is transient and can be retried
func isTransientStorageError(err error) bool {
	if err == nil {
		return false
	}

	// Check for specific database errors that are transient
	errStr := err.Error()

	// PostgreSQL transient errors
	transientErrors := []string{
		"connection",
		"timeout",
		"deadlock",
		"lock wait timeout",
		"connection refused",
		"connection reset",
		"broken pipe",
		"temporary failure",
		"try again",
		"resource temporarily unavailable",
	}

	for _, transientErr := range transientErrors {
		if strings.Contains(errStr, transientErr) {
			return true
		}
	}

	// Check for context errors (cancellation, deadline)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	return false
}
