package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreStock is the per (store, product, variant) availability counter used
// for reservation. Quantity and SubscriptionQuantity must never go negative;
// both are decremented only inside the transaction that creates the owning
// line item. Total is a derived monetary snapshot of the on-hand value.
type StoreStock struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StoreID              uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_store_stock_key"`
	ProductID            uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_store_stock_key"`
	VariantID            uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_store_stock_key"`
	Quantity             int             `gorm:"column:quantity;not null;default:0"`
	SubscriptionQuantity int             `gorm:"column:subscription_quantity;not null;default:0"`
	Total                decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
