package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// WalletAccount holds one balance per user. The ledger entries are the source
// of truth; the balance is a cached projection that must stay >= 0.
type WalletAccount struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// WalletLedgerEntry is an immutable audit row. Reference carries the
// human-readable order number of the triggering order; (account, reference,
// direction) is unique so a retried operation cannot double-apply.
type WalletLedgerEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	AccountID uuid.UUID             `gorm:"column:account_id;type:uuid;not null;uniqueIndex:ux_wallet_ledger_reference"`
	Direction enums.WalletDirection `gorm:"column:direction;type:wallet_direction;not null;uniqueIndex:ux_wallet_ledger_reference"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	Reference string                `gorm:"column:reference;not null;uniqueIndex:ux_wallet_ledger_reference"`
	Note      *string               `gorm:"column:note"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
