package stores

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
)

// Repository looks up fulfillment stores and their timeslots. Order and
// subscription validation leans on it for existence checks and per-store
// charges.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetActive(ctx context.Context, id uuid.UUID) (*models.Store, error)
	GetTimeslot(ctx context.Context, storeID, timeslotID uuid.UUID) (*models.Timeslot, error)
	ListActive(ctx context.Context) ([]models.Store, error)
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

func (r *repository) GetActive(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *repository) GetTimeslot(ctx context.Context, storeID, timeslotID uuid.UUID) (*models.Timeslot, error) {
	var slot models.Timeslot
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ? AND is_active = ?", timeslotID, storeID, true).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&stores).Error
	return stores, err
}
