package handler

import (
	"net/http"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

type LabelHandler struct {
	labelService *service.LabelService
	logger       *zap.Logger
}

func NewLabelHandler(labelService *service.LabelService, logger *zap.Logger) *LabelHandler {
	return &LabelHandler{labelService: labelService, logger: logger}
}

// List godoc
// @Summary List labels
// @Tags Labels
// @Produce json
// @Success 200 {array} domain.LabelDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /labels [get]
func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	labels, err := h.labelService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list labels")
		return
	}
	respondJSON(w, http.StatusOK, labels)
}

// Create godoc
// @Summary Create label
// @Description A system kind can be held by one label only
// @Tags Labels
// @Accept json
// @Produce json
// @Param request body domain.CreateLabelRequest true "Label"
// @Success 201 {object} domain.LabelDTO
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /labels [post]
func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLabelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	label, err := h.labelService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create label")
		return
	}
	respondJSON(w, http.StatusCreated, label)
}

// Update godoc
// @Summary Update label
// @Tags Labels
// @Accept json
// @Produce json
// @Param id path string true "Label ID" format(uuid)
// @Param request body domain.UpdateLabelRequest true "Label"
// @Success 200 {object} domain.LabelDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /labels/{id} [put]
func (h *LabelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateLabelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	label, err := h.labelService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update label")
		return
	}
	respondJSON(w, http.StatusOK, label)
}

// Delete godoc
// @Summary Delete label
// @Description Detaches the label from every quote request. Admin only.
// @Tags Labels
// @Param id path string true "Label ID" format(uuid)
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /labels/{id} [delete]
func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.labelService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete label")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FixDuplicates godoc
// @Summary Merge duplicate labels
// @Description Keeps the oldest label of each name, rewrites quote requests and assigns missing system kinds
// @Tags Labels
// @Produce json
// @Success 200 {object} domain.FixDuplicateLabelsResultDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /labels/fix-duplicates [post]
func (h *LabelHandler) FixDuplicates(w http.ResponseWriter, r *http.Request) {
	result, err := h.labelService.FixDuplicates(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "fix duplicate labels")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
