package handler

import (
	"net/http"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templateService *service.TemplateService
	logger          *zap.Logger
}

func NewTemplateHandler(templateService *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, logger: logger}
}

// List godoc
// @Summary List templates
// @Description Shared templates plus those of the country (defaults to the caller's first country)
// @Tags Templates
// @Produce json
// @Param country query string false "Country"
// @Success 200 {array} domain.TemplateDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates [get]
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateService.List(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list templates")
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// Create godoc
// @Summary Save a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body domain.CreateTemplateRequest true "Template"
// @Success 201 {object} domain.TemplateDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates [post]
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	template, err := h.templateService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create template")
		return
	}
	respondJSON(w, http.StatusCreated, template)
}

// Delete godoc
// @Summary Delete a template
// @Tags Templates
// @Param id path string true "Template ID" format(uuid)
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.templateService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateQuoteRequest godoc
// @Summary Start a quote request from a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param request body domain.CreateFromTemplateRequest true "Fields the template does not carry"
// @Success 201 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id}/quote-requests [post]
func (h *TemplateHandler) CreateQuoteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.CreateFromTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.templateService.CreateQuoteRequest(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create quote request from template")
		return
	}
	respondJSON(w, http.StatusCreated, dto)
}
