package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
)

// LineKey identifies a cart row inside a user's basket at one store.
type LineKey struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// Repository persists basket rows. One row per
// (user, store, product, variant); re-adding the same line updates the
// quantity in place.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, item *models.CartItem) error
	GetOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Delete(ctx context.Context, itemID uuid.UUID) error
	ClearLines(ctx context.Context, userID, storeID uuid.UUID, keys []LineKey) error
	DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
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

func (r *repository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "store_id"}, {Name: "product_id"}, {Name: "variant_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit_price", "updated_at"}),
		}).
		Create(item).Error
}

func (r *repository) GetOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) Delete(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{}).Error
}

// ClearLines removes the basket rows matching an order's lines. It runs
// inside the order-creation transaction, so a rolled-back order leaves the
// basket untouched.
func (r *repository) ClearLines(ctx context.Context, userID, storeID uuid.UUID, keys []LineKey) error {
	for _, key := range keys {
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND store_id = ? AND product_id = ? AND variant_id = ?",
				userID, storeID, key.ProductID, key.VariantID).
			Delete(&models.CartItem{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteStaleBefore prunes basket rows not touched since the cutoff.
func (r *repository) DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
