package subscriptions

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/inventory"
	"github.com/grocerly/grocerly-backend/internal/pricing"
	"github.com/grocerly/grocerly-backend/internal/wallet"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
	"github.com/grocerly/grocerly-backend/pkg/schedule"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	order, err := s.repo.GetOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SubscriptionOrder, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// PauseItem records a pause window and computes the refund it will earn.
// The refund is deferred: the reconcile sweep credits it only after the
// window has fully elapsed, so a later resume cannot over-refund.
func (s *service) PauseItem(ctx context.Context, userID, itemID uuid.UUID, pauseStart, pauseEnd time.Time) (*models.SubscriptionLineItem, error) {
	if pauseStart.IsZero() || pauseEnd.IsZero() || pauseEnd.Before(pauseStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pause window is invalid")
	}

	var paused *models.SubscriptionLineItem
	err := s.coordinator.RunWithRetry(ctx, "subscriptions.pause_item", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, order, err := s.loadOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if item.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line item is no longer active")
		}
		if item.Paused {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line item already has a pending pause")
		}
		if pauseStart.Before(item.StartDate) || pauseEnd.After(item.EndDate) {
			return pkgerrors.New(pkgerrors.CodeValidation, "pause window must lie within the line item window")
		}

		history, err := repo.ListPauseRecords(ctx, item.ID)
		if err != nil {
			return err
		}
		for _, prior := range history {
			if overlaps(pauseStart, pauseEnd, prior.PauseStart, prior.PauseEnd) {
				return pkgerrors.New(pkgerrors.CodeValidation, "pause window overlaps an earlier pause").
					WithDetails(map[string]string{
						"prior_start": prior.PauseStart.Format(time.DateOnly),
						"prior_end":   prior.PauseEnd.Format(time.DateOnly),
					})
			}
		}

		refund := s.pauseRefund(item, pauseStart, pauseEnd)
		record := &models.PauseRecord{
			ID:           uuid.New(),
			UserID:       userID,
			LineItemID:   item.ID,
			PauseStart:   pauseStart,
			PauseEnd:     pauseEnd,
			RefundAmount: refund,
		}
		if err := repo.CreatePauseRecord(ctx, record); err != nil {
			return err
		}

		item.Paused = true
		item.PauseStart = &record.PauseStart
		item.PauseEnd = &record.PauseEnd
		if !time.Now().Before(dayStart(pauseStart)) {
			item.Status = enums.SubscriptionItemStatusPaused
		}
		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}
		if err := s.rollUp(ctx, repo, order); err != nil {
			return err
		}
		if err := s.emitItemEvent(ctx, tx, enums.EventSubscriptionItemPaused, order, item, &refund); err != nil {
			return err
		}
		paused = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paused, nil
}

// ResumeItem clears the pause early. The refund already recorded for the
// pause window is not retroactively adjusted.
func (s *service) ResumeItem(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error) {
	var resumed *models.SubscriptionLineItem
	err := s.coordinator.RunWithRetry(ctx, "subscriptions.resume_item", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, order, err := s.loadOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if item.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line item is no longer active")
		}
		if !item.Paused {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line item is not paused")
		}

		item.Paused = false
		item.PauseStart = nil
		item.PauseEnd = nil
		if item.Status == enums.SubscriptionItemStatusPaused {
			item.Status = enums.SubscriptionItemStatusActive
		}
		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}
		if err := s.rollUp(ctx, repo, order); err != nil {
			return err
		}
		if err := s.emitItemEvent(ctx, tx, enums.EventSubscriptionItemResumed, order, item, nil); err != nil {
			return err
		}
		resumed = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resumed, nil
}

// CancelItem refunds the prorated remainder of the line and releases the
// stock still reserved for it. Days inside recorded pause windows are
// excluded here; their refunds stay with the pause records.
func (s *service) CancelItem(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error) {
	var cancelled *models.SubscriptionLineItem
	err := s.coordinator.RunWithRetry(ctx, "subscriptions.cancel_item", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, order, err := s.loadOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if item.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "line item is already terminal")
		}

		history, err := repo.ListPauseRecords(ctx, item.ID)
		if err != nil {
			return err
		}
		pauses := pauseIntervals(history)
		today := dayStart(time.Now())

		from := today.AddDate(0, 0, 1)
		if from.Before(item.StartDate) {
			from = item.StartDate
		}
		days := weekdaySetOf(item.Schedule)
		remainingDays := schedule.DeliveryDayCount(from, item.EndDate, days, pauses)
		remainingUnits := pricing.SubscriptionLineUnits(item.Schedule, from, item.EndDate, pauses)

		refund := decimal.Zero
		if remainingDays > 0 && item.DayCount > 0 {
			refund = item.Price.
				Div(decimal.NewFromInt(int64(item.DayCount))).
				Mul(decimal.NewFromInt(int64(remainingDays))).
				Round(2)
		}
		if refund.IsPositive() {
			_, err := s.wallet.Credit(ctx, tx, wallet.MovementInput{
				UserID:    userID,
				Amount:    refund,
				Reference: "subscription_item_cancel:" + item.ID.String(),
			})
			if err != nil {
				return err
			}
		}

		if remainingUnits > 0 {
			err := s.inventory.Release(ctx, tx, []inventory.ReservationRequest{{
				StoreID:      order.StoreID,
				ProductID:    item.ProductID,
				VariantID:    item.VariantID,
				Quantity:     remainingUnits,
				Subscription: true,
			}})
			if err != nil {
				return err
			}
		}

		item.Status = enums.SubscriptionItemStatusCancelled
		item.Paused = false
		item.PauseStart = nil
		item.PauseEnd = nil
		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}

		// The cancelled line leaves the order totals.
		order.Subtotal = decimal.Max(order.Subtotal.Sub(item.Price), decimal.Zero)
		order.Total = decimal.Max(order.Total.Sub(item.Price), decimal.Zero)
		if err := s.rollUpWithTotals(ctx, repo, order, item); err != nil {
			return err
		}
		if err := s.emitItemEvent(ctx, tx, enums.EventSubscriptionItemCancelled, order, item, &refund); err != nil {
			return err
		}
		cancelled = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CancelOrder cancels a whole subscription while it is still pending: one
// full-total credit, every line cancelled, all reserved stock released.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	var result *models.SubscriptionOrder
	err := s.coordinator.RunWithRetry(ctx, "subscriptions.cancel_order", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetOwnedOrderForUpdate(ctx, userID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription order not found")
		}
		if order.Status != enums.SubscriptionOrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending subscriptions can be cancelled outright").
				WithDetails(map[string]string{"status": string(order.Status)})
		}

		releases := make([]inventory.ReservationRequest, 0, len(order.Items))
		for _, item := range order.Items {
			if item.Status.IsTerminal() {
				continue
			}
			releases = append(releases, inventory.ReservationRequest{
				StoreID:      order.StoreID,
				ProductID:    item.ProductID,
				VariantID:    item.VariantID,
				Quantity:     item.TotalUnits,
				Subscription: true,
			})
		}
		if len(releases) > 0 {
			if err := s.inventory.Release(ctx, tx, releases); err != nil {
				return err
			}
		}

		if order.Total.IsPositive() {
			_, err := s.wallet.Credit(ctx, tx, wallet.MovementInput{
				UserID:    userID,
				Amount:    order.Total,
				Reference: "subscription_cancel:" + order.OrderNumber,
			})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		voided := make([]uuid.UUID, 0, len(order.Items))
		for i := range order.Items {
			if order.Items[i].Status.IsTerminal() {
				continue
			}
			order.Items[i].Status = enums.SubscriptionItemStatusCancelled
			order.Items[i].Paused = false
			order.Items[i].PauseStart = nil
			order.Items[i].PauseEnd = nil
			if err := repo.SaveItem(ctx, &order.Items[i]); err != nil {
				return err
			}
			voided = append(voided, order.Items[i].ID)
		}
		// The full-total credit above already covers paused days, so any
		// deferred pause refunds on these lines must not pay out again.
		if err := repo.VoidPauseRecords(ctx, voided); err != nil {
			return err
		}
		if order.CouponID != nil {
			if err := s.coupons.ReleaseInTx(ctx, tx, *order.CouponID); err != nil {
				return err
			}
		}
		order.Status = enums.SubscriptionOrderStatusCancelled
		order.CancelledAt = &now
		if err := repo.SaveOrder(ctx, order); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCancelled,
			AggregateType: enums.AggregateSubscriptionOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.SubscriptionCancelledEvent{
				SubscriptionOrderID: order.ID,
				UserID:              userID,
				RefundAmount:        order.Total,
				CancelledAt:         now,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadOwnedItem resolves a line item through its owning order, locking the
// order row so concurrent lifecycle calls serialize per aggregate.
func (s *service) loadOwnedItem(ctx context.Context, repo Repository, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, *models.SubscriptionOrder, error) {
	item, err := repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription line item not found")
	}
	order, err := repo.GetOwnedOrderForUpdate(ctx, userID, item.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription line item not found")
	}
	return item, order, nil
}

// pauseRefund prorates the line price over the delivery days the pause
// swallows.
func (s *service) pauseRefund(item *models.SubscriptionLineItem, pauseStart, pauseEnd time.Time) decimal.Decimal {
	if item.DayCount <= 0 {
		return decimal.Zero
	}
	days := weekdaySetOf(item.Schedule)
	pausedDays := schedule.DeliveryDayCount(pauseStart, pauseEnd, days, nil)
	if pausedDays == 0 {
		return decimal.Zero
	}
	return item.Price.
		Div(decimal.NewFromInt(int64(item.DayCount))).
		Mul(decimal.NewFromInt(int64(pausedDays))).
		Round(2)
}

// rollUp recomputes the derived order status from its line items.
func (s *service) rollUp(ctx context.Context, repo Repository, order *models.SubscriptionOrder) error {
	fresh, err := repo.GetOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if fresh == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription order not found")
	}
	order.Status = rollUpStatus(fresh.Items)
	return repo.SaveOrder(ctx, order)
}

func (s *service) rollUpWithTotals(ctx context.Context, repo Repository, order *models.SubscriptionOrder, _ *models.SubscriptionLineItem) error {
	fresh, err := repo.GetOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if fresh == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription order not found")
	}
	order.Status = rollUpStatus(fresh.Items)
	if order.Status == enums.SubscriptionOrderStatusCancelled {
		order.Subtotal = decimal.Zero
		order.Total = decimal.Zero
	}
	return repo.SaveOrder(ctx, order)
}

// rollUpStatus derives the order status: any pending line keeps the order
// pending, a completed line completes it, all-cancelled cancels it, an
// all-paused remainder reads paused, anything else is active.
func rollUpStatus(items []models.SubscriptionLineItem) enums.SubscriptionOrderStatus {
	if len(items) == 0 {
		return enums.SubscriptionOrderStatusCancelled
	}
	var (
		pending, completed, cancelled, paused int
	)
	for _, item := range items {
		switch item.Status {
		case enums.SubscriptionItemStatusPending:
			pending++
		case enums.SubscriptionItemStatusCompleted:
			completed++
		case enums.SubscriptionItemStatusCancelled:
			cancelled++
		case enums.SubscriptionItemStatusPaused:
			paused++
		}
	}
	switch {
	case pending > 0:
		return enums.SubscriptionOrderStatusPending
	case completed > 0:
		return enums.SubscriptionOrderStatusCompleted
	case cancelled == len(items):
		return enums.SubscriptionOrderStatusCancelled
	case paused > 0 && paused+cancelled == len(items):
		return enums.SubscriptionOrderStatusPaused
	default:
		return enums.SubscriptionOrderStatusActive
	}
}

func (s *service) emitItemEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.SubscriptionOrder, item *models.SubscriptionLineItem, refund *decimal.Decimal) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateSubscriptionOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.SubscriptionItemEvent{
			SubscriptionOrderID: order.ID,
			LineItemID:          item.ID,
			UserID:              order.UserID,
			Status:              item.Status,
			PauseStart:          item.PauseStart,
			PauseEnd:            item.PauseEnd,
			RefundAmount:        refund,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) resolveWindow(input CreateInput) (time.Time, time.Time, error) {
	if input.StartDate.IsZero() {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "start date is required")
	}
	start := dayStart(input.StartDate)
	var end time.Time
	if input.EndDate != nil && !input.EndDate.IsZero() {
		end = dayStart(*input.EndDate)
	} else {
		end = start.AddDate(0, 0, s.cfg.DefaultHorizonDays)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}
	minEnd := start.AddDate(0, 0, s.cfg.MinDurationDays-1)
	if end.Before(minEnd) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("subscription must run at least %d days", s.cfg.MinDurationDays))
	}
	return start, end, nil
}

func (s *service) allocateOrderNumber(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < s.orderCfg.NumberAttempts; attempt++ {
		number := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
		exists, err := repo.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a free order number")
}

func weekdaySetOf(quantities types.WeekdayQuantities) schedule.WeekdaySet {
	return schedule.NewWeekdaySet(quantities.SelectedWeekdays()...)
}

func pauseIntervals(records []models.PauseRecord) []schedule.Interval {
	intervals := make([]schedule.Interval, 0, len(records))
	for _, record := range records {
		intervals = append(intervals, schedule.Interval{Start: record.PauseStart, End: record.PauseEnd})
	}
	return intervals
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !dayStart(aStart).After(dayStart(bEnd)) && !dayStart(bStart).After(dayStart(aEnd))
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
