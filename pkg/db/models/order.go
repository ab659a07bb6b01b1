package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// Order is an instant order. It is created atomically with its line items and
// the matching stock/wallet effects; afterwards only its status moves.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber       string            `gorm:"column:order_number;not null;uniqueIndex"`
	StoreID           uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	AddressID         *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	ReceiverName      *string           `gorm:"column:receiver_name"`
	ReceiverPhone     *string           `gorm:"column:receiver_phone"`
	TimeslotID        uuid.UUID         `gorm:"column:timeslot_id;type:uuid;not null"`
	Type              enums.OrderType   `gorm:"column:type;type:order_type;not null"`
	Status            enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Subtotal          decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharge    decimal.Decimal   `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	StoreCharge       decimal.Decimal   `gorm:"column:store_charge;type:numeric(12,2);not null;default:0"`
	Tax               decimal.Decimal   `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	CouponID          *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	CouponValue       decimal.Decimal   `gorm:"column:coupon_value;type:numeric(12,2);not null;default:0"`
	Total             decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentReference  *string           `gorm:"column:payment_reference"`
	Items             []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt       *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem captures the price snapshot of one product/variant entry.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	Title     string          `gorm:"column:title;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
