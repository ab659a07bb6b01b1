package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing. The base stock counter is the
// legacy aggregate mirrored by per-store StoreStock rows.
type Product struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title                string          `gorm:"column:title;not null"`
	Description          *string         `gorm:"column:description"`
	Stock                int             `gorm:"column:stock;not null;default:0"`
	OutOfStock           bool            `gorm:"column:out_of_stock;not null;default:false"`
	SubscriptionEligible bool            `gorm:"column:subscription_eligible;not null;default:false"`
	IsActive             bool            `gorm:"column:is_active;not null"`
	Variants             []WeightVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// WeightVariant is a weight/size option of a Product. Prices are copied into
// line items at order time; orders never re-read live prices.
type WeightVariant struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Label             string          `gorm:"column:label;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	SubscriptionPrice decimal.Decimal `gorm:"column:subscription_price;type:numeric(12,2);not null"`
	ListPrice         decimal.Decimal `gorm:"column:list_price;type:numeric(12,2);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
