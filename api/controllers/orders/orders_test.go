package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grocerly/grocerly-backend/api/middleware"
	internalorders "github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

type stubOrdersService struct {
	create       func(ctx context.Context, userID uuid.UUID, input internalorders.CreateInput) (*models.Order, error)
	get          func(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	list         func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	updateStatus func(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	cancel       func(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

func (s *stubOrdersService) Create(ctx context.Context, userID uuid.UUID, input internalorders.CreateInput) (*models.Order, error) {
	return s.create(ctx, userID, input)
}

func (s *stubOrdersService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.get(ctx, userID, orderID)
}

func (s *stubOrdersService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.list(ctx, userID, limit, offset)
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	return s.updateStatus(ctx, orderID, target)
}

func (s *stubOrdersService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.cancel(ctx, userID, orderID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) types.Envelope {
	t.Helper()
	var envelope types.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func TestCreate_PassesParsedInput(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()
	timeslotID := uuid.New()
	productID := uuid.New()
	variantID := uuid.New()

	var captured internalorders.CreateInput
	svc := &stubOrdersService{
		create: func(_ context.Context, gotUser uuid.UUID, input internalorders.CreateInput) (*models.Order, error) {
			if gotUser != userID {
				t.Fatalf("user id = %s, want %s", gotUser, userID)
			}
			captured = input
			return &models.Order{ID: uuid.New(), OrderNumber: "100001"}, nil
		},
	}

	body := `{
		"store_id": "` + storeID.String() + `",
		"timeslot_id": "` + timeslotID.String() + `",
		"type": "delivery",
		"client_total": "145.50",
		"lines": [{"product_id": "` + productID.String() + `", "variant_id": "` + variantID.String() + `", "quantity": 2}]
	}`

	rec := httptest.NewRecorder()
	Create(svc, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/orders", body, userID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if captured.StoreID != storeID || captured.TimeslotID != timeslotID {
		t.Fatalf("input ids not forwarded: %+v", captured)
	}
	if captured.Type != enums.OrderTypeDelivery {
		t.Fatalf("type = %s, want delivery", captured.Type)
	}
	if captured.ClientTotal == nil || captured.ClientTotal.StringFixed(2) != "145.50" {
		t.Fatalf("client total = %v, want 145.50", captured.ClientTotal)
	}
	if len(captured.Lines) != 1 || captured.Lines[0].Quantity != 2 {
		t.Fatalf("lines = %+v", captured.Lines)
	}

	envelope := decodeEnvelope(t, rec)
	if envelope.Result != "true" || envelope.ResponseCode != "201" {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestCreate_RejectsMalformedBody(t *testing.T) {
	svc := &stubOrdersService{
		create: func(context.Context, uuid.UUID, internalorders.CreateInput) (*models.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	Create(svc, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/orders", `{"store_id": "nope"}`, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_RequiresUserContext(t *testing.T) {
	svc := &stubOrdersService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	Create(svc, testLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestDetail_ParsesOrderParam(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	svc := &stubOrdersService{
		get: func(_ context.Context, gotUser, gotOrder uuid.UUID) (*models.Order, error) {
			if gotUser != userID || gotOrder != orderID {
				t.Fatalf("got (%s, %s), want (%s, %s)", gotUser, gotOrder, userID, orderID)
			}
			return &models.Order{ID: orderID, OrderNumber: "100002"}, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", Detail(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/orders/"+orderID.String(), "", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestDetail_RejectsBadOrderID(t *testing.T) {
	svc := &stubOrdersService{}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", Detail(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/orders/not-a-uuid", "", uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCancel_SurfacesStateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		cancel: func(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already dispatched")
		},
	}

	router := chi.NewRouter()
	router.Post("/orders/{orderId}/cancel", Cancel(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", "", uuid.New()))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Result != "false" || envelope.Message != "order already dispatched" {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestUpdateStatus_ParsesTarget(t *testing.T) {
	orderID := uuid.New()
	var gotTarget enums.OrderStatus
	svc := &stubOrdersService{
		updateStatus: func(_ context.Context, gotOrder uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
			if gotOrder != orderID {
				t.Fatalf("order id = %s, want %s", gotOrder, orderID)
			}
			gotTarget = target
			return &models.Order{ID: orderID, Status: target}, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/orders/{orderId}/status", UpdateStatus(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", `{"status": "processing"}`, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if gotTarget != enums.OrderStatusProcessing {
		t.Fatalf("target = %s, want processing", gotTarget)
	}
}

func TestList_ClampsPagination(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{
		list: func(_ context.Context, _ uuid.UUID, limit, offset int) ([]models.Order, error) {
			if limit != 10 || offset != 5 {
				t.Fatalf("limit/offset = %d/%d, want 10/5", limit, offset)
			}
			return []models.Order{}, nil
		},
	}

	rec := httptest.NewRecorder()
	List(svc, testLogger())(rec, authedRequest(http.MethodGet, "/api/v1/orders?limit=10&offset=5", "", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}
