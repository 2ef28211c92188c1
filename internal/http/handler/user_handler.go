package handler

import (
	"net/http"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves user and country administration
type UserHandler struct {
	userService    *service.UserService
	countryService *service.CountryService
	logger         *zap.Logger
}

func NewUserHandler(userService *service.UserService, countryService *service.CountryService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:    userService,
		countryService: countryService,
		logger:         logger,
	}
}

// ListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name or email"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserProfileDTO}
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.userService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// UpdateUser godoc
// @Summary Update a user
// @Description Role, countries, business unit and name. Super admin only.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param request body domain.UpdateUserRequest true "Changes"
// @Success 200 {object} domain.UserProfileDTO
// @Failure 409 {object} domain.ErrorResponse "Would remove the last super admin"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ListCountries godoc
// @Summary List countries
// @Tags Countries
// @Produce json
// @Success 200 {array} domain.CountryDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /countries [get]
func (h *UserHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.countryService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list countries")
		return
	}
	respondJSON(w, http.StatusOK, countries)
}

// CreateCountry godoc
// @Summary Create country
// @Tags Countries
// @Accept json
// @Produce json
// @Param request body domain.CreateCountryRequest true "Country"
// @Success 201 {object} domain.CountryDTO
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /countries [post]
func (h *UserHandler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCountryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	country, err := h.countryService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create country")
		return
	}
	respondJSON(w, http.StatusCreated, country)
}

// UpdateCountry godoc
// @Summary Update or rename a country
// @Description A rename cascades to quote requests, users, customers and notification settings
// @Tags Countries
// @Accept json
// @Produce json
// @Param id path string true "Country ID" format(uuid)
// @Param request body domain.UpdateCountryRequest true "Country"
// @Success 200 {object} domain.CountryRenameResultDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /countries/{id} [put]
func (h *UserHandler) UpdateCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateCountryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.countryService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update country")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DeleteCountry godoc
// @Summary Delete country
// @Tags Countries
// @Param id path string true "Country ID" format(uuid)
// @Success 204
// @Failure 409 {object} domain.ErrorResponse "Country still in use"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /countries/{id} [delete]
func (h *UserHandler) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.countryService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete country")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
