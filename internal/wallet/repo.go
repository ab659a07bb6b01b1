package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// Repository manages wallet accounts and their append-only ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetAccountByUser(ctx context.Context, userID uuid.UUID) (*models.WalletAccount, error)
	GetAccountByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.WalletAccount, error)
	CreateAccount(ctx context.Context, account *models.WalletAccount) error
	SaveAccount(ctx context.Context, account *models.WalletAccount) error
	FindEntry(ctx context.Context, accountID uuid.UUID, direction enums.WalletDirection, reference string) (*models.WalletLedgerEntry, error)
	CreateEntry(ctx context.Context, entry *models.WalletLedgerEntry) error
	ListEntries(ctx context.Context, accountID uuid.UUID, limit int) ([]models.WalletLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetAccountByUser(ctx context.Context, userID uuid.UUID) (*models.WalletAccount, error) {
	return r.getAccountByUser(ctx, userID, false)
}

func (r *repository) GetAccountByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.WalletAccount, error) {
	return r.getAccountByUser(ctx, userID, true)
}

func (r *repository) getAccountByUser(ctx context.Context, userID uuid.UUID, lock bool) (*models.WalletAccount, error) {
	q := r.db.WithContext(ctx)
	if lock && q.Dialector != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var account models.WalletAccount
	err := q.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateAccount(ctx context.Context, account *models.WalletAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) SaveAccount(ctx context.Context, account *models.WalletAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *repository) FindEntry(ctx context.Context, accountID uuid.UUID, direction enums.WalletDirection, reference string) (*models.WalletLedgerEntry, error) {
	var entry models.WalletLedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND direction = ? AND reference = ?", accountID, direction, reference).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.WalletLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, accountID uuid.UUID, limit int) ([]models.WalletLedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.WalletLedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
