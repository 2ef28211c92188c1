package handler

import (
	"net/http"
	"strconv"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// List godoc
// @Summary List customers
// @Description Get paginated list of customers visible to the caller
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name or contact"
// @Param country query string false "Filter by country"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.CustomerDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [get]
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.customerService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"), r.URL.Query().Get("country"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list customers")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get customer by ID
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {object} domain.CustomerDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Create godoc
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body domain.CreateCustomerRequest true "Customer data"
// @Success 201 {object} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create customer")
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

// Update godoc
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.UpdateCustomerRequest true "Customer data"
// @Success 200 {object} domain.CustomerDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Delete godoc
// @Summary Delete customer
// @Description Fails with 409 while quote requests reference the customer
// @Tags Customers
// @Param id path string true "Customer ID" format(uuid)
// @Success 204
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.customerService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListJobsites godoc
// @Summary List a customer's jobsites
// @Tags Jobsites
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {array} domain.JobsiteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id}/jobsites [get]
func (h *CustomerHandler) ListJobsites(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	jobsites, err := h.customerService.ListJobsites(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list jobsites")
		return
	}
	respondJSON(w, http.StatusOK, jobsites)
}

// CreateJobsite godoc
// @Summary Add a jobsite to a customer
// @Tags Jobsites
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.CreateJobsiteRequest true "Jobsite"
// @Success 201 {object} domain.JobsiteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id}/jobsites [post]
func (h *CustomerHandler) CreateJobsite(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.CreateJobsiteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	jobsite, err := h.customerService.CreateJobsite(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create jobsite")
		return
	}
	respondJSON(w, http.StatusCreated, jobsite)
}

// UpdateJobsite godoc
// @Summary Update a jobsite
// @Tags Jobsites
// @Accept json
// @Produce json
// @Param id path string true "Jobsite ID" format(uuid)
// @Param request body domain.UpdateJobsiteRequest true "Jobsite"
// @Success 200 {object} domain.JobsiteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobsites/{id} [put]
func (h *CustomerHandler) UpdateJobsite(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateJobsiteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	jobsite, err := h.customerService.UpdateJobsite(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update jobsite")
		return
	}
	respondJSON(w, http.StatusOK, jobsite)
}

// DeleteJobsite godoc
// @Summary Delete a jobsite
// @Tags Jobsites
// @Param id path string true "Jobsite ID" format(uuid)
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobsites/{id} [delete]
func (h *CustomerHandler) DeleteJobsite(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeleteJobsite(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete jobsite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Nearby godoc
// @Summary Jobsites near a point
// @Description Visible jobsites within radiusKm (default 25, max 500), nearest first
// @Tags Jobsites
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radiusKm query number false "Radius in km"
// @Success 200 {array} domain.JobsiteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobsites/nearby [get]
func (h *CustomerHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required numbers")
		return
	}
	var radius float64
	if raw := q.Get("radiusKm"); raw != "" {
		var err error
		if radius, err = strconv.ParseFloat(raw, 64); err != nil {
			respondWithError(w, http.StatusBadRequest, "radiusKm must be a number")
			return
		}
	}

	jobsites, err := h.customerService.Nearby(r.Context(), lat, lng, radius)
	if err != nil {
		respondServiceError(w, h.logger, err, "find nearby jobsites")
		return
	}
	respondJSON(w, http.StatusOK, jobsites)
}
