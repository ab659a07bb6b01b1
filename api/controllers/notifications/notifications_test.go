package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grocerly/grocerly-backend/api/middleware"
	internalnotifications "github.com/grocerly/grocerly-backend/internal/notifications"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

type stubNotificationsService struct {
	list        func(ctx context.Context, params internalnotifications.ListParams) (*internalnotifications.ListResult, error)
	markRead    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllRead func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *stubNotificationsService) List(ctx context.Context, params internalnotifications.ListParams) (*internalnotifications.ListResult, error) {
	return s.list(ctx, params)
}

func (s *stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.markRead(ctx, userID, notificationID)
}

func (s *stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.markAllRead(ctx, userID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func authedRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestList_ForwardsQueryParams(t *testing.T) {
	userID := uuid.New()
	svc := &stubNotificationsService{
		list: func(_ context.Context, params internalnotifications.ListParams) (*internalnotifications.ListResult, error) {
			if params.UserID != userID {
				t.Fatalf("user id = %s, want %s", params.UserID, userID)
			}
			if params.Limit != 10 || params.Cursor != "abc" || !params.UnreadOnly {
				t.Fatalf("params = %+v", params)
			}
			return &internalnotifications.ListResult{Items: []models.Notification{}}, nil
		},
	}

	rec := httptest.NewRecorder()
	List(svc, testLogger())(rec, authedRequest(http.MethodGet, "/api/v1/notifications?limit=10&cursor=abc&unread_only=true", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestList_RejectsBadUnreadOnly(t *testing.T) {
	svc := &stubNotificationsService{
		list: func(context.Context, internalnotifications.ListParams) (*internalnotifications.ListResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	List(svc, testLogger())(rec, authedRequest(http.MethodGet, "/api/v1/notifications?unread_only=maybe", uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMarkRead_ParsesNotificationID(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()

	svc := &stubNotificationsService{
		markRead: func(_ context.Context, gotUser, gotNotification uuid.UUID) error {
			if gotUser != userID || gotNotification != notificationID {
				t.Fatalf("got (%s, %s), want (%s, %s)", gotUser, gotNotification, userID, notificationID)
			}
			return nil
		},
	}

	router := chi.NewRouter()
	router.Post("/notifications/{notificationId}/read", MarkRead(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestMarkAllRead_ReturnsCount(t *testing.T) {
	svc := &stubNotificationsService{
		markAllRead: func(context.Context, uuid.UUID) (int64, error) {
			return 4, nil
		},
	}

	rec := httptest.NewRecorder()
	MarkAllRead(svc, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/notifications/read-all", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"updated":4`) {
		t.Fatalf("body = %s", body)
	}
}
