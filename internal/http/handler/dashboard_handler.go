package handler

import (
	"net/http"

	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	deadlineService  *service.DeadlineService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, deadlineService *service.DeadlineService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		deadlineService:  deadlineService,
		logger:           logger,
	}
}

// Kanban godoc
// @Summary Get the Kanban board
// @Description Classifies the visible quote requests into four mutually exclusive columns.
// @Description
// @Description **Columns:**
// @Description - `urgentOrProblems`: effective urgent or problems
// @Description - `waiting`: waiting for answer, not urgent
// @Description - `snoozed`: snoozed and nothing more pressing
// @Description - `standard`: everything else
// @Description
// @Description Requests missing special labels for their flags are healed on the way; `reconciled` counts them.
// @Tags Dashboard
// @Produce json
// @Param status query string false "Filter by status"
// @Param country query string false "Filter by creator or involved country"
// @Param labelId query string false "Filter by label"
// @Param search query string false "Search title and customer name"
// @Success 200 {object} domain.KanbanBoardDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/kanban [get]
func (h *DashboardHandler) Kanban(w http.ResponseWriter, r *http.Request) {
	filters, err := parseQuoteRequestFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	board, err := h.dashboardService.Kanban(r.Context(), filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "build kanban board")
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// Analytics godoc
// @Summary Analytics summary
// @Description Totals by status and bucket, and won/lost/open counts per creator country
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.AnalyticsSummaryDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /analytics/summary [get]
func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Analytics(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "build analytics summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ReconcileAll godoc
// @Summary Reconcile every quote request
// @Description Heals flags and special labels in batches. Admin only.
// @Tags Admin
// @Produce json
// @Success 200 {object} domain.ReconcileAllResultDTO
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/reconcile-all [post]
func (h *DashboardHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.ReconcileAll(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "reconcile quote requests")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CheckDeadlines godoc
// @Summary Run the deadline scan
// @Description Creates due start and end date warnings. Only one scan runs at a time.
// @Tags Admin
// @Produce json
// @Success 200 {object} domain.DeadlineScanResultDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Scan already in progress"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /api/admin/check-deadlines [post]
func (h *DashboardHandler) CheckDeadlines(w http.ResponseWriter, r *http.Request) {
	result, err := h.deadlineService.CheckDeadlines(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "check deadlines")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
