package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// Coupon is applicable only while its status is active and now falls inside
// the validity window. Its value is captured into the order at apply time.
// A zero UsageLimit means unlimited redemptions.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex"`
	Value          decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderAmount decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	UsageLimit     int                `gorm:"column:usage_limit;not null;default:0"`
	UsageCount     int                `gorm:"column:usage_count;not null;default:0"`
	ValidFrom      time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil     time.Time          `gorm:"column:valid_until;not null"`
	Status         enums.CouponStatus `gorm:"column:status;type:coupon_status;not null;default:'draft'"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
