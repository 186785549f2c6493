package handler

import (
	"net/http"
	"strings"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/middleware"
	"github.com/gatekeep/gatekeep-go/internal/model"
	"github.com/gatekeep/gatekeep-go/internal/respond"
	"github.com/gatekeep/gatekeep-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleRegister handles POST /api/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	payload, ok := middleware.PayloadFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperror.New(apperror.Unauthorized, "Unauthorized"))
		return
	}

	resp, err := h.service.Me(r.Context(), payload.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// decodeCredentials reads the body and checks that both fields are present.
// Format and strength rules belong to the credential service.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (model.Credentials, error) {
	var req model.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		return model.Credentials{}, err
	}

	if strings.TrimSpace(req.Email) == "" {
		return model.Credentials{}, apperror.NewField(apperror.InvalidRequest, "email", "Email is required")
	}
	if req.Password == "" {
		return model.Credentials{}, apperror.NewField(apperror.InvalidRequest, "password", "Password is required")
	}

	return req, nil
}
