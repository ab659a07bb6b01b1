package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/grocerly/grocerly-backend/pkg/db"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

// Service moves money in and out of wallets. Debit and Credit run
// inside the caller's transaction; each is idempotent with respect to
// (account, direction, reference) so a retried closure cannot
// double-apply.
type Service interface {
	Debit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletLedgerEntry, error)
	Credit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletLedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Statement(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletLedgerEntry, error)
}

// MovementInput describes a single debit or credit.
type MovementInput struct {
	UserID    uuid.UUID
	Amount    decimal.Decimal
	Reference string
	Note      *string
}

type service struct {
	repo Repository
}

// ServiceParams wires the wallet service dependencies.
type ServiceParams struct {
	Repo Repository
}

// NewService builds the wallet service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletLedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateMovement(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	account, err := repo.GetAccountByUserForUpdate(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "wallet balance is insufficient").
			WithDetails(map[string]string{"balance": "0", "requested": input.Amount.String()})
	}

	if existing, err := repo.FindEntry(ctx, account.ID, enums.WalletDirectionDebit, input.Reference); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if account.Balance.LessThan(input.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "wallet balance is insufficient").
			WithDetails(map[string]string{
				"balance":   account.Balance.String(),
				"requested": input.Amount.String(),
			})
	}

	account.Balance = account.Balance.Sub(input.Amount)
	if err := repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	entry := &models.WalletLedgerEntry{
		ID:        uuid.New(),
		AccountID: account.ID,
		Direction: enums.WalletDirectionDebit,
		Amount:    input.Amount,
		Reference: input.Reference,
		Note:      input.Note,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_wallet_ledger_reference") {
			return repo.FindEntry(ctx, account.ID, enums.WalletDirectionDebit, input.Reference)
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletLedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateMovement(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	account, err := repo.GetAccountByUserForUpdate(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &models.WalletAccount{
			ID:      uuid.New(),
			UserID:  input.UserID,
			Balance: decimal.Zero,
		}
		if err := repo.CreateAccount(ctx, account); err != nil {
			return nil, err
		}
	}

	if existing, err := repo.FindEntry(ctx, account.ID, enums.WalletDirectionCredit, input.Reference); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	account.Balance = account.Balance.Add(input.Amount)
	if err := repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	entry := &models.WalletLedgerEntry{
		ID:        uuid.New(),
		AccountID: account.ID,
		Direction: enums.WalletDirectionCredit,
		Amount:    input.Amount,
		Reference: input.Reference,
		Note:      input.Note,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_wallet_ledger_reference") {
			return repo.FindEntry(ctx, account.ID, enums.WalletDirectionCredit, input.Reference)
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, fmt.Errorf("user id is required")
	}
	account, err := s.repo.GetAccountByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.Balance, nil
}

func (s *service) Statement(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletLedgerEntry, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	account, err := s.repo.GetAccountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return []models.WalletLedgerEntry{}, nil
	}
	return s.repo.ListEntries(ctx, account.ID, limit)
}

func validateMovement(input MovementInput) error {
	if input.UserID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	if !input.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if input.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	return nil
}
