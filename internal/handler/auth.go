package handler

import (
	"net/http"
	"strings"

	"github.com/AadeshhhGavhane/c3/internal/middleware"
	"github.com/AadeshhhGavhane/c3/internal/model"
	"github.com/AadeshhhGavhane/c3/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleSignUp handles POST /api/auth/signup requests.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if !decodeRequest(w, r, &req, normalizeSignUp) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dataResponse("User created successfully. OTP sent to email.", resp))
}

// HandleSignIn handles POST /api/auth/signin requests.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if !decodeRequest(w, r, &req, func(req *model.SignInRequest) { req.Email = normalizeEmail(req.Email) }) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse("Login successful", resp))
}

// HandleSendOTP handles POST /api/auth/send-otp requests.
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if !decodeRequest(w, r, &req, normalizeEmailRequest) {
		return
	}

	if err := h.service.SendOTP(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("OTP sent to email successfully"))
}

// HandleVerifyOTP handles POST /api/auth/verify-otp requests.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyOTPRequest
	if !decodeRequest(w, r, &req, func(req *model.VerifyOTPRequest) { req.Email = normalizeEmail(req.Email) }) {
		return
	}

	resp, err := h.service.VerifyOTP(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse("OTP verified successfully. User is now verified.", resp))
}

// HandleForgotPassword handles POST /api/auth/forgot-password requests. The
// response does not reveal whether the email is registered.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if !decodeRequest(w, r, &req, normalizeEmailRequest) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("If the email exists, a password reset OTP has been sent."))
}

// HandleResetPassword handles POST /api/auth/reset-password requests.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeRequest(w, r, &req, func(req *model.ResetPasswordRequest) { req.Email = normalizeEmail(req.Email) }) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Password reset successfully"))
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid or expired token"))
		return
	}

	resp, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse("", resp))
}

// normalizeSignUp trims the name so the length and character rules apply to
// what is stored.
func normalizeSignUp(req *model.SignUpRequest) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
}

func normalizeEmailRequest(req *model.EmailRequest) {
	req.Email = normalizeEmail(req.Email)
}
