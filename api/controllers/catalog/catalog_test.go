package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	internalproducts "github.com/grocerly/grocerly-backend/internal/products"
	internalstores "github.com/grocerly/grocerly-backend/internal/stores"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

type stubStoresRepo struct {
	listActive func(ctx context.Context) ([]models.Store, error)
}

func (s *stubStoresRepo) WithTx(tx *gorm.DB) internalstores.Repository {
	return s
}

func (s *stubStoresRepo) GetActive(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	panic("not used by controllers")
}

func (s *stubStoresRepo) GetTimeslot(ctx context.Context, storeID, timeslotID uuid.UUID) (*models.Timeslot, error) {
	panic("not used by controllers")
}

func (s *stubStoresRepo) ListActive(ctx context.Context) ([]models.Store, error) {
	return s.listActive(ctx)
}

type stubProductsRepo struct {
	getActive  func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	listActive func(ctx context.Context, limit, offset int) ([]models.Product, error)
}

func (s *stubProductsRepo) WithTx(tx *gorm.DB) internalproducts.Repository {
	return s
}

func (s *stubProductsRepo) GetActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.getActive(ctx, id)
}

func (s *stubProductsRepo) GetVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.WeightVariant, error) {
	panic("not used by controllers")
}

func (s *stubProductsRepo) ListActive(ctx context.Context, limit, offset int) ([]models.Product, error) {
	return s.listActive(ctx, limit, offset)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestListStores_ReturnsActiveStores(t *testing.T) {
	repo := &stubStoresRepo{
		listActive: func(context.Context) ([]models.Store, error) {
			return []models.Store{{ID: uuid.New(), Name: "Sector 12 Hub"}}, nil
		},
	}

	rec := httptest.NewRecorder()
	ListStores(repo, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestListProducts_ForwardsPagination(t *testing.T) {
	repo := &stubProductsRepo{
		listActive: func(_ context.Context, limit, offset int) ([]models.Product, error) {
			if limit != 20 || offset != 40 {
				t.Fatalf("limit/offset = %d/%d, want 20/40", limit, offset)
			}
			return []models.Product{}, nil
		},
	}

	rec := httptest.NewRecorder()
	ListProducts(repo, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=20&offset=40", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestProductDetail_NotFoundWhenInactive(t *testing.T) {
	repo := &stubProductsRepo{
		getActive: func(context.Context, uuid.UUID) (*models.Product, error) {
			return nil, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/products/{productId}", ProductDetail(repo, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestProductDetail_RejectsBadID(t *testing.T) {
	repo := &stubProductsRepo{}

	router := chi.NewRouter()
	router.Get("/products/{productId}", ProductDetail(repo, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/banana", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
