package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/wallet"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

// Reconcile is the daily sweep. Every step is predicate-scoped, so running
// it twice for the same day is a no-op: state flips only move rows out of
// the predicate, and refunds are keyed to their pause record.
func (s *service) Reconcile(ctx context.Context, today time.Time) (*ReconcileStats, error) {
	day := dayStart(today)
	stats := &ReconcileStats{}

	err := s.coordinator.RunWithRetry(ctx, "subscriptions.reconcile", func(tx *gorm.DB) error {
		*stats = ReconcileStats{}
		repo := s.repo.WithTx(tx)
		touched := map[uuid.UUID]struct{}{}

		items, err := repo.ListItemsToActivate(ctx, day)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			item.Status = enums.SubscriptionItemStatusActive
			if item.Paused && withinWindow(day, item.PauseStart, item.PauseEnd) {
				item.Status = enums.SubscriptionItemStatusPaused
			}
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
			touched[item.OrderID] = struct{}{}
			stats.Activated++
		}

		items, err = repo.ListItemsEnteringPause(ctx, day)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			item.Status = enums.SubscriptionItemStatusPaused
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
			touched[item.OrderID] = struct{}{}
			stats.EnteredPause++
		}

		items, err = repo.ListItemsLeavingPause(ctx, day)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			item.Paused = false
			item.PauseStart = nil
			item.PauseEnd = nil
			if !item.Status.IsTerminal() {
				item.Status = enums.SubscriptionItemStatusActive
			}
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
			touched[item.OrderID] = struct{}{}
			stats.LeftPause++
		}

		refunds, err := s.realizeRefunds(ctx, tx, repo, day)
		if err != nil {
			return err
		}
		stats.RefundsIssued = refunds

		items, err = repo.ListItemsToComplete(ctx, day)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			item.Status = enums.SubscriptionItemStatusCompleted
			item.Paused = false
			item.PauseStart = nil
			item.PauseEnd = nil
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
			touched[item.OrderID] = struct{}{}
			stats.Completed++
		}

		for orderID := range touched {
			order, err := repo.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if order == nil {
				continue
			}
			order.Status = rollUpStatus(order.Items)
			if err := repo.SaveOrder(ctx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"activated":      stats.Activated,
		"entered_pause":  stats.EnteredPause,
		"left_pause":     stats.LeftPause,
		"refunds_issued": stats.RefundsIssued,
		"completed":      stats.Completed,
	})
	s.logg.Info(logCtx, "subscription reconcile sweep finished")
	return stats, nil
}

// realizeRefunds credits pause refunds whose windows have fully elapsed.
// The wallet reference is derived from the pause record id, so a crashed
// sweep that already credited cannot credit twice.
func (s *service) realizeRefunds(ctx context.Context, tx *gorm.DB, repo Repository, day time.Time) (int, error) {
	records, err := repo.ListUnrefundedPauseRecords(ctx, day)
	if err != nil {
		return 0, err
	}
	issued := 0
	for i := range records {
		record := &records[i]
		if record.RefundAmount.IsPositive() {
			entry, err := s.wallet.Credit(ctx, tx, wallet.MovementInput{
				UserID:    record.UserID,
				Amount:    record.RefundAmount,
				Reference: "pause_refund:" + record.ID.String(),
			})
			if err != nil {
				return issued, err
			}
			notify := outbox.DomainEvent{
				EventType:     enums.EventWalletRefunded,
				AggregateType: enums.AggregateWalletAccount,
				AggregateID:   entry.AccountID,
				Version:       1,
				Data: payloads.WalletRefundedEvent{
					AccountID: entry.AccountID,
					UserID:    record.UserID,
					Amount:    record.RefundAmount,
					Reference: "pause_refund:" + record.ID.String(),
				},
			}
			if err := s.outbox.Emit(ctx, tx, notify); err != nil {
				return issued, err
			}
		}
		now := time.Now().UTC()
		record.RefundedAt = &now
		if err := repo.SavePauseRecord(ctx, record); err != nil {
			return issued, err
		}
		issued++
	}
	return issued, nil
}

func withinWindow(day time.Time, start, end *time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	return !day.Before(dayStart(*start)) && !day.After(dayStart(*end))
}
