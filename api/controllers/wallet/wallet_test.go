package wallet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/api/middleware"
	internalwallet "github.com/grocerly/grocerly-backend/internal/wallet"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

type stubWalletService struct {
	balance   func(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	statement func(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletLedgerEntry, error)
}

func (s *stubWalletService) Debit(ctx context.Context, tx *gorm.DB, input internalwallet.MovementInput) (*models.WalletLedgerEntry, error) {
	panic("not used by controllers")
}

func (s *stubWalletService) Credit(ctx context.Context, tx *gorm.DB, input internalwallet.MovementInput) (*models.WalletLedgerEntry, error) {
	panic("not used by controllers")
}

func (s *stubWalletService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.balance(ctx, userID)
}

func (s *stubWalletService) Statement(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletLedgerEntry, error) {
	return s.statement(ctx, userID, limit)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestBalance_FormatsTwoDecimals(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{
		balance: func(_ context.Context, gotUser uuid.UUID) (decimal.Decimal, error) {
			if gotUser != userID {
				t.Fatalf("user id = %s, want %s", gotUser, userID)
			}
			return decimal.NewFromFloat(266.8), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()
	Balance(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var envelope types.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T", envelope.Data)
	}
	if data["balance"] != "266.80" {
		t.Fatalf("balance = %v, want 266.80", data["balance"])
	}
}

func TestStatement_PassesLimit(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{
		statement: func(_ context.Context, _ uuid.UUID, limit int) ([]models.WalletLedgerEntry, error) {
			if limit != 5 {
				t.Fatalf("limit = %d, want 5", limit)
			}
			return []models.WalletLedgerEntry{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/ledger?limit=5", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()
	Statement(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestBalance_RequiresUserContext(t *testing.T) {
	svc := &stubWalletService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	rec := httptest.NewRecorder()
	Balance(svc, testLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
