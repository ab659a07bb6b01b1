package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/metrics"
)

const (
	// maxTxAttempts bounds how many times a contended transaction is run
	// before the failure is surfaced to the caller.
	maxTxAttempts = 3
)

// txBackoff returns the pause before the given retry attempt (1-based).
var txBackoff = func(attempt int) time.Duration {
	return time.Duration(attempt) * 50 * time.Millisecond
}

// Coordinator runs transactional closures and retries them when the
// database reports transient contention. Business errors are never
// retried; the closure must re-read all state it depends on because
// every attempt starts from a fresh transaction.
type Coordinator struct {
	client  *Client
	logg    *logger.Logger
	metrics *metrics.TxRetryMetrics
}

// NewCoordinator wires a Coordinator around the shared client. Metrics
// may be nil.
func NewCoordinator(client *Client, logg *logger.Logger, m *metrics.TxRetryMetrics) (*Coordinator, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Coordinator{client: client, logg: logg, metrics: m}, nil
}

// RunWithRetry executes fn inside a transaction, retrying the whole
// closure when the commit or any statement fails with a deadlock,
// serialization failure, or lock timeout. The op label names the
// operation for logging and metrics.
func (c *Coordinator) RunWithRetry(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := c.client.WithTx(ctx, fn)
		if err == nil {
			if attempt == 1 {
				c.metrics.IncFirstAttemptSuccess(op)
			}
			return nil
		}
		if !IsTransientContention(err) {
			return err
		}

		lastErr = err
		if attempt == maxTxAttempts {
			break
		}

		c.metrics.IncRetry(op)
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"op":      op,
			"attempt": attempt,
		})
		c.logg.Warn(logCtx, "transaction hit transient contention, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txBackoff(attempt)):
		}
	}

	c.metrics.IncExhausted(op)
	return pkgerrors.Wrap(pkgerrors.CodeTransientContention, lastErr,
		fmt.Sprintf("%s failed after %d attempts", op, maxTxAttempts))
}
