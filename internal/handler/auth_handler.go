package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/service"
	"thus-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService      *service.AuthService
	handshakeService *service.HandshakeService
	validator        *validator.Validate
}

func NewAuthHandler(authService *service.AuthService, handshakeService *service.HandshakeService) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		handshakeService: handshakeService,
		validator:        validator.New(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.authService.Register(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Created(w, map[string]string{
		"message": "User registered successfully. Please login.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	loginResp, err := h.authService.Login(&req)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	response.Success(w, loginResp)
}

// Init starts the RSA login handshake: the client gets a one-time state and
// the public key to encrypt its email and symmetric key with.
func (h *AuthHandler) Init(w http.ResponseWriter, r *http.Request) {
	initResp, err := h.handshakeService.Init()
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}
	response.Success(w, initResp)
}

func (h *AuthHandler) RequestEmailCode(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.handshakeService.RequestEmailCode(&req); err != nil {
		h.writeHandshakeError(w, err)
		return
	}

	response.Success(w, map[string]string{
		"message": "Verification code sent",
	})
}

func (h *AuthHandler) LoginByEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	loginResp, err := h.handshakeService.LoginByEmail(&req)
	if err != nil {
		h.writeHandshakeError(w, err)
		return
	}

	response.Success(w, loginResp)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tokenResp, err := h.authService.RefreshToken(&req)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	response.Success(w, tokenResp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) writeHandshakeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDecryptFailed):
		response.DecryptError(w)
	case errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
