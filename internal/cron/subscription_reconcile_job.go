package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/grocerly/grocerly-backend/internal/subscriptions"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

type subscriptionReconciler interface {
	Reconcile(ctx context.Context, today time.Time) (*subscriptions.ReconcileStats, error)
}

// SubscriptionReconcileJobParams configure the daily subscription sweep.
type SubscriptionReconcileJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionReconciler
	Now           func() time.Time
}

// NewSubscriptionReconcileJob builds the job that activates, pauses,
// resumes, completes and refunds subscription line items for the day.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &subscriptionReconcileJob{
		logg: params.Logger,
		subs: params.Subscriptions,
		now:  now,
	}, nil
}

type subscriptionReconcileJob struct {
	logg *logger.Logger
	subs subscriptionReconciler
	now  func() time.Time
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	today := j.now().UTC()
	stats, err := j.subs.Reconcile(ctx, today)
	if err != nil {
		return fmt.Errorf("subscription reconcile: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"day":            today.Format(time.DateOnly),
		"activated":      stats.Activated,
		"entered_pause":  stats.EnteredPause,
		"left_pause":     stats.LeftPause,
		"refunds_issued": stats.RefundsIssued,
		"completed":      stats.Completed,
	})
	j.logg.Info(logCtx, "subscription reconcile job complete")
	return nil
}
