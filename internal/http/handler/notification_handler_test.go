package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/http/handler"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/service"
	"github.com/loxconnect/connect-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createNotificationHandler(db *gorm.DB) *handler.NotificationHandler {
	logger := zap.NewNop()
	notificationRepo := repository.NewNotificationRepository(db)
	notificationService := service.NewNotificationService(notificationRepo, repository.NewCountryRepository(db), logger)
	broadcastService := service.NewBroadcastService(repository.NewBroadcastRepository(db), notificationRepo, logger, db)
	return handler.NewNotificationHandler(notificationService, broadcastService, logger)
}

func userContext(userID uuid.UUID, countries ...string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      userID,
		UID:         "uid-" + userID.String()[:8],
		DisplayName: "Test User",
		Email:       "test@example.com",
		Role:        domain.RoleUser,
		Countries:   countries,
	})
}

func createTestNotification(t *testing.T, db *gorm.DB, country string, notificationType domain.NotificationType, title string, read bool) *domain.Notification {
	t.Helper()
	n := &domain.Notification{
		TargetCountry: country,
		Type:          notificationType,
		Title:         title,
		Message:       "Test notification message",
		Read:          read,
	}
	require.NoError(t, db.Create(n).Error)
	return n
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestNotificationHandler_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createNotificationHandler(db)
	ctx := userContext(uuid.New(), "Norway")

	createTestNotification(t, db, "Norway", domain.NotificationTypeDeadlineWarning, "Start soon", false)
	createTestNotification(t, db, "Norway", domain.NotificationTypeDeadlineWarning, "End soon", true)
	createTestNotification(t, db, "Norway", domain.NotificationTypeMessage, "New message", false)
	createTestNotification(t, db, "Sweden", domain.NotificationTypeMessage, "Not ours", false)

	list := func(t *testing.T, query string) (*httptest.ResponseRecorder, domain.PaginatedResponse) {
		req := httptest.NewRequest(http.MethodGet, "/notifications"+query, nil).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		var result domain.PaginatedResponse
		if rr.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		}
		return rr, result
	}

	t.Run("only the caller's countries", func(t *testing.T) {
		rr, result := list(t, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(3), result.Total)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 20, result.PageSize)
	})

	t.Run("pagination", func(t *testing.T) {
		_, result := list(t, "?page=1&pageSize=2")
		assert.Equal(t, 2, result.PageSize)
		assert.Equal(t, 2, result.TotalPages)
	})

	t.Run("unread only", func(t *testing.T) {
		_, result := list(t, "?unreadOnly=true")
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("by type", func(t *testing.T) {
		_, result := list(t, "?type=message")
		assert.Equal(t, int64(1), result.Total)
	})

	t.Run("unknown type", func(t *testing.T) {
		rr, _ := list(t, "?type=offer_accepted")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestNotificationHandler_ReadState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createNotificationHandler(db)
	ctx := userContext(uuid.New(), "Norway")

	ours := createTestNotification(t, db, "Norway", domain.NotificationTypeStatusChange, "Won", false)
	createTestNotification(t, db, "Norway", domain.NotificationTypeBroadcast, "Maintenance", false)
	theirs := createTestNotification(t, db, "Sweden", domain.NotificationTypeBroadcast, "Maintenance", false)

	count := func(t *testing.T) int {
		rr := httptest.NewRecorder()
		h.GetUnreadCount(rr, httptest.NewRequest(http.MethodGet, "/notifications/count", nil).WithContext(ctx))
		require.Equal(t, http.StatusOK, rr.Code)
		var dto domain.UnreadCountDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		return dto.Count
	}
	markRead := func(id string) int {
		req := httptest.NewRequest(http.MethodPut, "/notifications/"+id+"/read", nil).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.MarkAsRead(rr, withURLParam(req, "id", id))
		return rr.Code
	}

	assert.Equal(t, 2, count(t))

	assert.Equal(t, http.StatusNoContent, markRead(ours.ID.String()))
	assert.Equal(t, 1, count(t))

	// Marking twice is harmless
	assert.Equal(t, http.StatusNoContent, markRead(ours.ID.String()))

	assert.Equal(t, http.StatusForbidden, markRead(theirs.ID.String()))
	assert.Equal(t, http.StatusNotFound, markRead(uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, markRead("nope"))

	rr := httptest.NewRecorder()
	h.MarkAllAsRead(rr, httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body["marked"])
	assert.Equal(t, 0, count(t))

	var untouched domain.Notification
	require.NoError(t, db.First(&untouched, "id = ?", theirs.ID).Error)
	assert.False(t, untouched.Read)
}

func TestNotificationHandler_RequiresUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createNotificationHandler(db)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNotificationHandler_ErrorBodies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createNotificationHandler(db)
	ctx := userContext(uuid.New(), "Norway")
	theirs := createTestNotification(t, db, "Sweden", domain.NotificationTypeBroadcast, "Maintenance", false)

	markRead := func(ctx context.Context, id string) *http.Request {
		req := httptest.NewRequest(http.MethodPut, "/notifications/"+id+"/read", nil).WithContext(ctx)
		return withURLParam(req, "id", id)
	}

	tests := []struct {
		name     string
		serve    http.HandlerFunc
		req      *http.Request
		status   int
		wantType string
	}{
		{"bad type filter", h.List, httptest.NewRequest(http.MethodGet, "/notifications?type=nope", nil).WithContext(ctx), http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{"no caller", h.GetUnreadCount, httptest.NewRequest(http.MethodGet, "/notifications/count", nil), http.StatusUnauthorized, domain.ErrorTypeUnauthorized},
		{"other country", h.MarkAsRead, markRead(ctx, theirs.ID.String()), http.StatusForbidden, domain.ErrorTypeForbidden},
		{"unknown id", h.MarkAsRead, markRead(ctx, uuid.NewString()), http.StatusNotFound, domain.ErrorTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.serve(rr, tt.req)

			require.Equal(t, tt.status, rr.Code)
			var body domain.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.status, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}
