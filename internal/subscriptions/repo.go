package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
)

// Repository persists subscription orders, their line items, and the
// append-only pause history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.SubscriptionOrder) error
	GetOwnedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error)
	GetOwnedOrderForUpdate(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.SubscriptionOrder, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SubscriptionOrder, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	SaveOrder(ctx context.Context, order *models.SubscriptionOrder) error

	GetItem(ctx context.Context, itemID uuid.UUID) (*models.SubscriptionLineItem, error)
	SaveItem(ctx context.Context, item *models.SubscriptionLineItem) error

	CreatePauseRecord(ctx context.Context, record *models.PauseRecord) error
	ListPauseRecords(ctx context.Context, lineItemID uuid.UUID) ([]models.PauseRecord, error)
	SavePauseRecord(ctx context.Context, record *models.PauseRecord) error
	VoidPauseRecords(ctx context.Context, lineItemIDs []uuid.UUID) error

	ListItemsToActivate(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error)
	ListItemsEnteringPause(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error)
	ListItemsLeavingPause(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error)
	ListItemsToComplete(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error)
	ListUnrefundedPauseRecords(ctx context.Context, before time.Time) ([]models.PauseRecord, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.SubscriptionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetOwnedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	return r.firstOrder(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID))
}

func (r *repository) GetOwnedOrderForUpdate(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	q := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID)
	return r.firstOrder(r.withRowLock(q))
}

func (r *repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	return r.firstOrder(r.db.WithContext(ctx).Where("id = ?", orderID))
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SubscriptionOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var orders []models.SubscriptionOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *repository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SubscriptionOrder{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SaveOrder(ctx context.Context, order *models.SubscriptionOrder) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) GetItem(ctx context.Context, itemID uuid.UUID) (*models.SubscriptionLineItem, error) {
	var item models.SubscriptionLineItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) SaveItem(ctx context.Context, item *models.SubscriptionLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) CreatePauseRecord(ctx context.Context, record *models.PauseRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListPauseRecords(ctx context.Context, lineItemID uuid.UUID) ([]models.PauseRecord, error) {
	var records []models.PauseRecord
	err := r.db.WithContext(ctx).
		Where("line_item_id = ?", lineItemID).
		Order("pause_start ASC").
		Find(&records).Error
	return records, err
}

func (r *repository) SavePauseRecord(ctx context.Context, record *models.PauseRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// VoidPauseRecords closes out the outstanding pause refunds of the given
// line items with a zero amount, so the reconcile sweep never credits
// them. Used when a cancellation already refunded the full line value.
func (r *repository) VoidPauseRecords(ctx context.Context, lineItemIDs []uuid.UUID) error {
	if len(lineItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PauseRecord{}).
		Where("line_item_id IN ? AND refunded_at IS NULL", lineItemIDs).
		Updates(map[string]any{
			"refund_amount": decimal.Zero,
			"refunded_at":   time.Now().UTC(),
		}).Error
}

func (r *repository) ListItemsToActivate(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error) {
	var items []models.SubscriptionLineItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date <= ?", "pending", today).
		Find(&items).Error
	return items, err
}

func (r *repository) ListItemsEnteringPause(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error) {
	var items []models.SubscriptionLineItem
	err := r.db.WithContext(ctx).
		Where("paused = ? AND status = ? AND pause_start <= ? AND pause_end >= ?",
			true, "active", today, today).
		Find(&items).Error
	return items, err
}

func (r *repository) ListItemsLeavingPause(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error) {
	var items []models.SubscriptionLineItem
	err := r.db.WithContext(ctx).
		Where("paused = ? AND pause_end < ?", true, today).
		Find(&items).Error
	return items, err
}

func (r *repository) ListItemsToComplete(ctx context.Context, today time.Time) ([]models.SubscriptionLineItem, error) {
	var items []models.SubscriptionLineItem
	err := r.db.WithContext(ctx).
		Where("status IN ? AND end_date < ?", []string{"active", "paused"}, today).
		Find(&items).Error
	return items, err
}

func (r *repository) ListUnrefundedPauseRecords(ctx context.Context, before time.Time) ([]models.PauseRecord, error) {
	var records []models.PauseRecord
	err := r.db.WithContext(ctx).
		Where("refunded_at IS NULL AND pause_end < ?", before).
		Order("pause_end ASC").
		Find(&records).Error
	return records, err
}

func (r *repository) firstOrder(q *gorm.DB) (*models.SubscriptionOrder, error) {
	var order models.SubscriptionOrder
	err := q.Preload("Items").First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) withRowLock(q *gorm.DB) *gorm.DB {
	if q.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return q
}
