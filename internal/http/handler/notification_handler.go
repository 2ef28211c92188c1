package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

// validNotificationTypes contains all valid notification type values
var validNotificationTypes = map[string]bool{
	string(domain.NotificationTypeDeadlineWarning): true,
	string(domain.NotificationTypeBroadcast):       true,
	string(domain.NotificationTypeStatusChange):    true,
	string(domain.NotificationTypeMessage):         true,
}

// NotificationHandler handles HTTP requests for notifications, their
// per-country settings and admin broadcasts
type NotificationHandler struct {
	notificationService *service.NotificationService
	broadcastService    *service.BroadcastService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(notificationService *service.NotificationService, broadcastService *service.BroadcastService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		broadcastService:    broadcastService,
		logger:              logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Get paginated list of notifications for the current user and their countries
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param unreadOnly query bool false "Filter to show only unread notifications" default(false)
// @Param type query string false "Filter by notification type" Enums(deadline_warning, broadcast, status_change, message)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.NotificationDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	notificationType := r.URL.Query().Get("type")

	if notificationType != "" && !validNotificationTypes[notificationType] {
		respondWithError(w, http.StatusBadRequest, "invalid notification type: must be one of deadline_warning, broadcast, status_change, message")
		return
	}

	result, err := h.notificationService.List(r.Context(), page, pageSize, unreadOnly, notificationType)
	if err != nil {
		respondServiceError(w, h.logger, err, "list notifications")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetUnreadCount godoc
// @Summary Get unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.UnreadCountDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/count [get]
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.CountUnread(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "count notifications")
		return
	}
	respondJSON(w, http.StatusOK, domain.UnreadCountDTO{Count: count})
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Param id path string true "Notification ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkAsRead(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "mark notification as read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.notificationService.MarkAllAsRead(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "mark notifications as read")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

// ListSettings godoc
// @Summary Deadline warning settings per country
// @Description Countries without stored settings report the defaults
// @Tags NotificationSettings
// @Produce json
// @Success 200 {array} domain.NotificationSettingsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notification-settings [get]
func (h *NotificationHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.notificationService.ListSettings(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list notification settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update a country's deadline warning settings
// @Tags NotificationSettings
// @Accept json
// @Produce json
// @Param country path string true "Country name"
// @Param request body domain.UpdateNotificationSettingsRequest true "Settings"
// @Success 200 {object} domain.NotificationSettingsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notification-settings/{country} [put]
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateNotificationSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	settings, err := h.notificationService.UpdateSettings(r.Context(), chi.URLParam(r, "country"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update notification settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// ListBroadcasts godoc
// @Summary List broadcasts
// @Tags Broadcasts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.BroadcastDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /broadcasts [get]
func (h *NotificationHandler) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.broadcastService.List(r.Context(), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list broadcasts")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreateBroadcast godoc
// @Summary Send a broadcast
// @Description Creates one notification per target country
// @Tags Broadcasts
// @Accept json
// @Produce json
// @Param request body domain.CreateBroadcastRequest true "Broadcast"
// @Success 201 {object} domain.BroadcastDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /broadcasts [post]
func (h *NotificationHandler) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBroadcastRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	broadcast, err := h.broadcastService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "send broadcast")
		return
	}
	respondJSON(w, http.StatusCreated, broadcast)
}
