package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

// SubscriptionOrder aggregates subscription line items. Its status is a
// derived roll-up of the line items, persisted for query convenience only.
type SubscriptionOrder struct {
	ID             uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber    string                        `gorm:"column:order_number;not null;uniqueIndex"`
	StoreID        uuid.UUID                     `gorm:"column:store_id;type:uuid;not null"`
	UserID         uuid.UUID                     `gorm:"column:user_id;type:uuid;not null"`
	AddressID      *uuid.UUID                    `gorm:"column:address_id;type:uuid"`
	StartDate      time.Time                     `gorm:"column:start_date;not null"`
	EndDate        time.Time                     `gorm:"column:end_date;not null"`
	Status         enums.SubscriptionOrderStatus `gorm:"column:status;type:subscription_order_status;not null;default:'pending'"`
	Subtotal       decimal.Decimal               `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal               `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	StoreCharge    decimal.Decimal               `gorm:"column:store_charge;type:numeric(12,2);not null;default:0"`
	Tax            decimal.Decimal               `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	CouponID       *uuid.UUID                    `gorm:"column:coupon_id;type:uuid"`
	CouponValue    decimal.Decimal               `gorm:"column:coupon_value;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal               `gorm:"column:total;type:numeric(12,2);not null"`
	Items          []SubscriptionLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt    *time.Time                    `gorm:"column:cancelled_at"`
	CreatedAt      time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}

// SubscriptionLineItem carries its own weekday schedule and pause state.
// Price and DayCount are captured at creation; refunds prorate against them.
type SubscriptionLineItem struct {
	ID         uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID                    `gorm:"column:order_id;type:uuid;not null"`
	ProductID  uuid.UUID                    `gorm:"column:product_id;type:uuid;not null"`
	VariantID  uuid.UUID                    `gorm:"column:variant_id;type:uuid;not null"`
	TimeslotID uuid.UUID                    `gorm:"column:timeslot_id;type:uuid;not null"`
	Title      string                       `gorm:"column:title;not null"`
	Schedule   types.WeekdayQuantities      `gorm:"embedded"`
	StartDate  time.Time                    `gorm:"column:start_date;not null"`
	EndDate    time.Time                    `gorm:"column:end_date;not null"`
	UnitPrice  decimal.Decimal              `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Price      decimal.Decimal              `gorm:"column:price;type:numeric(12,2);not null"`
	DayCount   int                          `gorm:"column:day_count;not null"`
	TotalUnits int                          `gorm:"column:total_units;not null"`
	Paused     bool                         `gorm:"column:paused;not null;default:false"`
	PauseStart *time.Time                   `gorm:"column:pause_start"`
	PauseEnd   *time.Time                   `gorm:"column:pause_end"`
	Status     enums.SubscriptionItemStatus `gorm:"column:status;type:subscription_item_status;not null;default:'pending'"`
	CreatedAt  time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

// PauseRecord is the append-only pause history of a line item. RefundedAt is
// set exactly once when the deferred refund is realized by the reconcile
// sweep; rows are never mutated otherwise.
type PauseRecord struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	LineItemID   uuid.UUID       `gorm:"column:line_item_id;type:uuid;not null"`
	PauseStart   time.Time       `gorm:"column:pause_start;not null"`
	PauseEnd     time.Time       `gorm:"column:pause_end;not null"`
	RefundAmount decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2);not null;default:0"`
	RefundedAt   *time.Time      `gorm:"column:refunded_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
