package handler

import (
	"errors"
	"net/http"

	"github.com/loxconnect/connect-api/internal/auth"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/mapper"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	verifier    auth.IDTokenVerifier
	sessions    *auth.SessionManager
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(verifier auth.IDTokenVerifier, sessions *auth.SessionManager, userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		verifier:    verifier,
		sessions:    sessions,
		userService: userService,
		logger:      logger,
	}
}

// CreateSession godoc
// @Summary Start a session
// @Description Verifies an identity-provider ID token, bootstraps the user profile and sets the __session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.CreateSessionRequest true "ID token"
// @Success 200 {object} domain.MeDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /api/auth/session [post]
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	identity, err := h.verifier.ValidateToken(r.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("session token rejected", zap.Error(err))
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrExpiredToken) {
			status = http.StatusServiceUnavailable
		}
		respondWithError(w, status, "Invalid ID token")
		return
	}

	profile, err := h.userService.Bootstrap(r.Context(), *identity)
	if err != nil {
		respondServiceError(w, h.logger, err, "bootstrap user profile")
		return
	}

	token, expires, err := h.sessions.Mint(identity)
	if err != nil {
		respondServiceError(w, h.logger, err, "create session")
		return
	}
	h.sessions.SetCookie(w, token, expires)

	h.logger.Info("session created",
		zap.String("userId", profile.ID.String()),
		zap.String("email", profile.Email))

	dto := mapper.ToUserProfileDTO(profile)
	respondJSON(w, http.StatusOK, domain.MeDTO{
		User:        domain.SessionUserDTO{UID: identity.UID, Email: identity.Email, Name: identity.Name},
		UserProfile: &dto,
	})
}

// DeleteSession godoc
// @Summary End the session
// @Description Clears the __session cookie
// @Tags Auth
// @Success 204
// @Router /api/auth/session [delete]
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the verified identity and the stored user profile
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.MeDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.userService.Me(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "get current user")
		return
	}
	respondJSON(w, http.StatusOK, me)
}
