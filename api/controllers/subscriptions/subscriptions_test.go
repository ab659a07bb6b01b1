package subscriptions

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grocerly/grocerly-backend/api/middleware"
	internalsubs "github.com/grocerly/grocerly-backend/internal/subscriptions"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

type stubSubsService struct {
	create      func(ctx context.Context, userID uuid.UUID, input internalsubs.CreateInput) (*models.SubscriptionOrder, error)
	get         func(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error)
	list        func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SubscriptionOrder, error)
	pauseItem   func(ctx context.Context, userID, itemID uuid.UUID, pauseStart, pauseEnd time.Time) (*models.SubscriptionLineItem, error)
	resumeItem  func(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error)
	cancelItem  func(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error)
	cancelOrder func(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error)
}

func (s *stubSubsService) Create(ctx context.Context, userID uuid.UUID, input internalsubs.CreateInput) (*models.SubscriptionOrder, error) {
	return s.create(ctx, userID, input)
}

func (s *stubSubsService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	return s.get(ctx, userID, orderID)
}

func (s *stubSubsService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SubscriptionOrder, error) {
	return s.list(ctx, userID, limit, offset)
}

func (s *stubSubsService) PauseItem(ctx context.Context, userID, itemID uuid.UUID, pauseStart, pauseEnd time.Time) (*models.SubscriptionLineItem, error) {
	return s.pauseItem(ctx, userID, itemID, pauseStart, pauseEnd)
}

func (s *stubSubsService) ResumeItem(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error) {
	return s.resumeItem(ctx, userID, itemID)
}

func (s *stubSubsService) CancelItem(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error) {
	return s.cancelItem(ctx, userID, itemID)
}

func (s *stubSubsService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error) {
	return s.cancelOrder(ctx, userID, orderID)
}

func (s *stubSubsService) Reconcile(ctx context.Context, today time.Time) (*internalsubs.ReconcileStats, error) {
	panic("not used by controllers")
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

func TestCreate_ParsesDatesAndSchedule(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()
	productID := uuid.New()
	variantID := uuid.New()
	timeslotID := uuid.New()

	var captured internalsubs.CreateInput
	svc := &stubSubsService{
		create: func(_ context.Context, gotUser uuid.UUID, input internalsubs.CreateInput) (*models.SubscriptionOrder, error) {
			if gotUser != userID {
				t.Fatalf("user id = %s, want %s", gotUser, userID)
			}
			captured = input
			return &models.SubscriptionOrder{ID: uuid.New()}, nil
		},
	}

	body := `{
		"store_id": "` + storeID.String() + `",
		"start_date": "2027-06-07",
		"end_date": "2027-06-20",
		"lines": [{
			"product_id": "` + productID.String() + `",
			"variant_id": "` + variantID.String() + `",
			"timeslot_id": "` + timeslotID.String() + `",
			"quantities": {"monday": 1, "wednesday": 2}
		}]
	}`

	rec := httptest.NewRecorder()
	Create(svc, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/subscriptions", body, userID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	wantStart := time.Date(2027, time.June, 7, 0, 0, 0, 0, time.UTC)
	if !captured.StartDate.Equal(wantStart) {
		t.Fatalf("start date = %s, want %s", captured.StartDate, wantStart)
	}
	if captured.EndDate == nil || !captured.EndDate.Equal(time.Date(2027, time.June, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end date = %v", captured.EndDate)
	}
	if len(captured.Lines) != 1 {
		t.Fatalf("lines = %+v", captured.Lines)
	}
	if captured.Lines[0].Quantities.Monday != 1 || captured.Lines[0].Quantities.Wednesday != 2 {
		t.Fatalf("quantities = %+v", captured.Lines[0].Quantities)
	}
}

func TestCreate_RejectsBadStartDate(t *testing.T) {
	svc := &stubSubsService{
		create: func(context.Context, uuid.UUID, internalsubs.CreateInput) (*models.SubscriptionOrder, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{
		"store_id": "` + uuid.NewString() + `",
		"start_date": "07/06/2027",
		"lines": [{
			"product_id": "` + uuid.NewString() + `",
			"variant_id": "` + uuid.NewString() + `",
			"timeslot_id": "` + uuid.NewString() + `",
			"quantities": {"monday": 1}
		}]
	}`

	rec := httptest.NewRecorder()
	Create(svc, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/subscriptions", body, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPauseItem_ForwardsWindow(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	svc := &stubSubsService{
		pauseItem: func(_ context.Context, gotUser, gotItem uuid.UUID, pauseStart, pauseEnd time.Time) (*models.SubscriptionLineItem, error) {
			if gotUser != userID || gotItem != itemID {
				t.Fatalf("got (%s, %s), want (%s, %s)", gotUser, gotItem, userID, itemID)
			}
			if pauseStart.Day() != 14 || pauseEnd.Day() != 15 {
				t.Fatalf("window = %s..%s", pauseStart, pauseEnd)
			}
			return &models.SubscriptionLineItem{ID: itemID}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/subscriptions/items/{itemId}/pause", PauseItem(svc, testLogger()))

	body := `{"pause_start": "2027-06-14", "pause_end": "2027-06-15"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/subscriptions/items/"+itemID.String()+"/pause", body, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestResumeItem_RejectsBadItemID(t *testing.T) {
	svc := &stubSubsService{}

	router := chi.NewRouter()
	router.Post("/subscriptions/items/{itemId}/resume", ResumeItem(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/subscriptions/items/garbage/resume", "", uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCancelOrder_SurfacesServiceError(t *testing.T) {
	orderID := uuid.New()
	svc := &stubSubsService{
		cancelOrder: func(context.Context, uuid.UUID, uuid.UUID) (*models.SubscriptionOrder, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription already active")
		},
	}

	router := chi.NewRouter()
	router.Post("/subscriptions/{subscriptionId}/cancel", CancelOrder(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/subscriptions/"+orderID.String()+"/cancel", "", uuid.New()))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCancelItem_ForwardsIDs(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	svc := &stubSubsService{
		cancelItem: func(_ context.Context, gotUser, gotItem uuid.UUID) (*models.SubscriptionLineItem, error) {
			if gotUser != userID || gotItem != itemID {
				t.Fatalf("got (%s, %s), want (%s, %s)", gotUser, gotItem, userID, itemID)
			}
			return &models.SubscriptionLineItem{ID: itemID}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/subscriptions/items/{itemId}/cancel", CancelItem(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/subscriptions/items/"+itemID.String()+"/cancel", "", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}
