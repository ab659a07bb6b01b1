package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grocerly/grocerly-backend/internal/subscriptions"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

type fakeReconciler struct {
	lastDay time.Time
	called  int
	err     error
}

func (f *fakeReconciler) Reconcile(_ context.Context, today time.Time) (*subscriptions.ReconcileStats, error) {
	f.called++
	f.lastDay = today
	if f.err != nil {
		return nil, f.err
	}
	return &subscriptions.ReconcileStats{Activated: 3, RefundsIssued: 1}, nil
}

func TestSubscriptionReconcileJobPassesToday(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	reconciler := &fakeReconciler{}
	jobIface, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Subscriptions: reconciler,
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewSubscriptionReconcileJob: %v", err)
	}

	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reconciler.called != 1 {
		t.Fatalf("expected one reconcile call, got %d", reconciler.called)
	}
	if !reconciler.lastDay.Equal(now) {
		t.Fatalf("expected day %s, got %s", now, reconciler.lastDay)
	}
}

func TestSubscriptionReconcileJobPropagatesError(t *testing.T) {
	reconciler := &fakeReconciler{err: errors.New("boom")}
	jobIface, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Subscriptions: reconciler,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionReconcileJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
