package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
)

// Repository looks up catalog products and their weight variants. Checkout
// uses it to validate lines and capture variant prices at order time.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.WeightVariant, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.Product, error)
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

func (r *repository) GetActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.WeightVariant, error) {
	var variant models.WeightVariant
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

func (r *repository) ListActive(ctx context.Context, limit, offset int) ([]models.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("is_active = ?", true).
		Order("title ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	return products, err
}
