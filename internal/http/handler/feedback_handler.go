package handler

import (
	"net/http"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

// FeedbackHandler serves the idea board and error reports
type FeedbackHandler struct {
	ideaService        *service.IdeaService
	errorReportService *service.ErrorReportService
	logger             *zap.Logger
}

func NewFeedbackHandler(ideaService *service.IdeaService, errorReportService *service.ErrorReportService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		ideaService:        ideaService,
		errorReportService: errorReportService,
		logger:             logger,
	}
}

// ListIdeas godoc
// @Summary List ideas
// @Description Most liked first
// @Tags Ideas
// @Produce json
// @Param status query string false "Filter by status" Enums(open, planned, done, rejected)
// @Success 200 {array} domain.IdeaDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ideas [get]
func (h *FeedbackHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideaService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list ideas")
		return
	}
	respondJSON(w, http.StatusOK, ideas)
}

// CreateIdea godoc
// @Summary Submit an idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param request body domain.CreateIdeaRequest true "Idea"
// @Success 201 {object} domain.IdeaDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ideas [post]
func (h *FeedbackHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateIdeaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	idea, err := h.ideaService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create idea")
		return
	}
	respondJSON(w, http.StatusCreated, idea)
}

// LikeIdea godoc
// @Summary Like an idea
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID" format(uuid)
// @Success 200 {object} domain.IdeaDTO
// @Security BearerAuth
// @Router /ideas/{id}/like [post]
func (h *FeedbackHandler) LikeIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	idea, err := h.ideaService.Like(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "like idea")
		return
	}
	respondJSON(w, http.StatusOK, idea)
}

// UnlikeIdea godoc
// @Summary Remove a like
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID" format(uuid)
// @Success 200 {object} domain.IdeaDTO
// @Security BearerAuth
// @Router /ideas/{id}/like [delete]
func (h *FeedbackHandler) UnlikeIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	idea, err := h.ideaService.Unlike(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "unlike idea")
		return
	}
	respondJSON(w, http.StatusOK, idea)
}

// UpdateIdeaStatus godoc
// @Summary Change an idea's status
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID" format(uuid)
// @Param request body domain.UpdateIdeaStatusRequest true "Status"
// @Success 200 {object} domain.IdeaDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ideas/{id}/status [put]
func (h *FeedbackHandler) UpdateIdeaStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateIdeaStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	idea, err := h.ideaService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "update idea status")
		return
	}
	respondJSON(w, http.StatusOK, idea)
}

// ListErrorReports godoc
// @Summary List error reports
// @Tags ErrorReports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(open, in_progress, resolved)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ErrorReportDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /error-reports [get]
func (h *FeedbackHandler) ListErrorReports(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.errorReportService.List(r.Context(), page, pageSize, r.URL.Query().Get("status"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list error reports")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreateErrorReport godoc
// @Summary Report a problem
// @Tags ErrorReports
// @Accept json
// @Produce json
// @Param request body domain.CreateErrorReportRequest true "Report"
// @Success 201 {object} domain.ErrorReportDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /error-reports [post]
func (h *FeedbackHandler) CreateErrorReport(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateErrorReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	report, err := h.errorReportService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create error report")
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// UpdateErrorReportStatus godoc
// @Summary Change an error report's status
// @Tags ErrorReports
// @Accept json
// @Produce json
// @Param id path string true "Error report ID" format(uuid)
// @Param request body domain.UpdateErrorReportStatusRequest true "Status"
// @Success 200 {object} domain.ErrorReportDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /error-reports/{id}/status [put]
func (h *FeedbackHandler) UpdateErrorReportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateErrorReportStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	report, err := h.errorReportService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "update error report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
