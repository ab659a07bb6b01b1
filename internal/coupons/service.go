package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

// Service validates coupon applicability. The checks run in a fixed
// sequence and the first failure aborts the whole pricing operation.
type Service interface {
	Validate(ctx context.Context, code string, now time.Time, subtotal decimal.Decimal) (*models.Coupon, error)
	// ValidateInTx runs the same checks against the caller's transaction so
	// order creation reads coupon state consistently with everything else.
	ValidateInTx(ctx context.Context, tx *gorm.DB, code string, now time.Time, subtotal decimal.Decimal) (*models.Coupon, error)
	// ApplyInTx validates under a row lock and burns one use, so a capped
	// coupon can never be redeemed past its limit by concurrent orders.
	ApplyInTx(ctx context.Context, tx *gorm.DB, code string, now time.Time, subtotal decimal.Decimal) (*models.Coupon, error)
	// ReleaseInTx returns one use when a coupon-bearing order is cancelled.
	ReleaseInTx(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
}

type service struct {
	repo Repository
}

// ServiceParams wires the coupon service dependencies.
type ServiceParams struct {
	Repo Repository
}

// NewService builds the coupon service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Validate(ctx context.Context, code string, now time.Time, subtotal decimal.Decimal) (*models.Coupon, error) {
	return s.validate(ctx, s.repo, code, now, subtotal, false)
}

func (s *service) ValidateInTx(ctx context.Context, tx *gorm.DB, code string, now time.Time, subtotal decimal.Decimal) (*models.Coupon, error) {
	return s.validate(ctx, s.repo.WithTx(tx), code, now, subtotal, false)
}

func (s *service) ApplyInTx(ctx context.Context, tx *gorm.DB, code string, now time.Time, subtotal decimal.Decimal) (*models.Coupon, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	repo := s.repo.WithTx(tx)
	coupon, err := s.validate(ctx, repo, code, now, subtotal, true)
	if err != nil {
		return nil, err
	}
	if err := repo.IncrementUsage(ctx, coupon.ID); err != nil {
		return nil, err
	}
	coupon.UsageCount++
	return coupon, nil
}

func (s *service) ReleaseInTx(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	return s.repo.WithTx(tx).DecrementUsage(ctx, couponID)
}

func (s *service) validate(ctx context.Context, repo Repository, code string, now time.Time, subtotal decimal.Decimal, lock bool) (*models.Coupon, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	var (
		coupon *models.Coupon
		err    error
	)
	if lock {
		coupon, err = repo.GetByCodeForUpdate(ctx, code)
	} else {
		coupon, err = repo.GetByCode(ctx, code)
	}
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon does not exist")
	}
	if coupon.Status != enums.CouponStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeCouponNotEligible, "coupon is not active")
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponNotEligible, "coupon is outside its validity window")
	}
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponNotEligible,
			fmt.Sprintf("order subtotal is below the coupon minimum of %s", coupon.MinOrderAmount.StringFixed(2)))
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeCouponNotEligible, "coupon usage limit reached")
	}
	return coupon, nil
}
