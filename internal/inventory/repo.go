package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
)

// Repository manages persistence for per-store stock counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetStock(ctx context.Context, storeID, productID, variantID uuid.UUID) (*models.StoreStock, error)
	GetStockForUpdate(ctx context.Context, storeID, productID, variantID uuid.UUID) (*models.StoreStock, error)
	SaveStock(ctx context.Context, stock *models.StoreStock) error
	GetProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetStock(ctx context.Context, storeID, productID, variantID uuid.UUID) (*models.StoreStock, error) {
	return r.getStock(ctx, storeID, productID, variantID, false)
}

func (r *repository) GetStockForUpdate(ctx context.Context, storeID, productID, variantID uuid.UUID) (*models.StoreStock, error) {
	return r.getStock(ctx, storeID, productID, variantID, true)
}

func (r *repository) getStock(ctx context.Context, storeID, productID, variantID uuid.UUID, lock bool) (*models.StoreStock, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = withRowLock(q)
	}
	var stock models.StoreStock
	err := q.Where("store_id = ? AND product_id = ? AND variant_id = ?", storeID, productID, variantID).
		First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stock, nil
}

func (r *repository) SaveStock(ctx context.Context, stock *models.StoreStock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

func (r *repository) GetProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := withRowLock(r.db.WithContext(ctx)).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// withRowLock adds SELECT ... FOR UPDATE where the dialect supports it.
// sqlite (tests) serializes writers anyway.
func withRowLock(q *gorm.DB) *gorm.DB {
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return q
}
