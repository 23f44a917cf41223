package auth

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type registerRequest struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	DateOfBirth     string `json:"date_of_birth" form:"date_of_birth"`
}

type userResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DateOfBirth time.Time `json:"date_of_birth"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type verifyOTPRequest struct {
	Username string `json:"username" form:"username"`
	OTPCode  string `json:"otp_code" form:"otp_code"`
}

type resendOTPRequest struct {
	Email string `json:"email" form:"email"`
}

type loginRequest struct {
	Username string   `json:"username" form:"username"`
	Password string   `json:"password" form:"password"`
	Scope    string   `json:"-" form:"scope"`
	Scopes   []string `json:"scopes" form:"-"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}

	dateOfBirth, reason, message := validateRegisterRequest(&req)
	if reason != "" {
		h.log.Warn("invalid register request",
			zap.String("reason", reason),
			zap.String("username", req.Username))
		return respondError(c, http.StatusBadRequest, reason, message)
	}

	h.log.Info("handling register request", zap.String("username", req.Username))

	user, err := h.service.Signup(c.Request().Context(), req.Username, req.Email, req.Password, dateOfBirth)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			return respondError(c, http.StatusBadRequest, "duplicate_username", "username already registered")
		case errors.Is(err, ErrEmailTaken):
			return respondError(c, http.StatusBadRequest, "duplicate_email", "email already registered")
		}
		h.log.Error("failed to register user", zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.Username == "" || req.OTPCode == "" {
		return respondError(c, http.StatusBadRequest, "invalid_request", "username and otp_code are required")
	}

	pair, err := h.service.VerifyOTPAndActivate(c.Request().Context(), req.Username, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			return respondError(c, http.StatusBadRequest, "invalid_credentials", "invalid credentials")
		case errors.Is(err, ErrInvalidOTP):
			return respondError(c, http.StatusBadRequest, "invalid_otp", "invalid or expired otp")
		}
		h.log.Error("otp verification failed",
			zap.String("username", req.Username),
			zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusOK, newTokenResponse(pair))
}

func (h *Handler) ResendOTP(c echo.Context) error {
	var req resendOTPRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if !isValidEmail(req.Email) {
		return respondError(c, http.StatusBadRequest, "invalid_request", "a valid email is required")
	}

	if err := h.service.ResendOTP(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, ErrEmailNotFound) {
			return respondError(c, http.StatusBadRequest, "email_not_found", "email not registered")
		}
		h.log.Error("failed to resend otp", zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "otp sent"})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.Username == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "invalid_request", "username and password are required")
	}

	pair, err := h.service.Login(c.Request().Context(), req.Username, req.Password, req.requestedScopes())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			return respondError(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		case errors.Is(err, ErrAccountNotActive):
			return respondError(c, http.StatusUnauthorized, "account_not_active", "account is not active")
		}
		h.log.Error("login failed",
			zap.String("username", req.Username),
			zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusOK, newTokenResponse(pair))
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.RefreshToken == "" {
		return respondError(c, http.StatusBadRequest, "invalid_request", "refresh_token is required")
	}

	pair, err := h.service.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return respondError(c, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token")
		}
		h.log.Error("token refresh failed", zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Me returns the profile behind the bearer token. The middleware has already
// resolved the user.
func (h *Handler) Me(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// requestedScopes merges the OAuth2 form field (space separated) with the
// JSON array form.
func (r *loginRequest) requestedScopes() []string {
	if r.Scope != "" {
		return append(strings.Fields(r.Scope), r.Scopes...)
	}
	return r.Scopes
}

func validateRegisterRequest(req *registerRequest) (time.Time, string, string) {
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return time.Time{}, "invalid_username", "username must be between 3 and 50 characters"
	}
	if !isValidEmail(req.Email) {
		return time.Time{}, "invalid_email", "invalid email format"
	}
	if len(req.Password) < 8 {
		return time.Time{}, "invalid_password", "password must be at least 8 characters"
	}
	if req.Password != req.ConfirmPassword {
		return time.Time{}, "password_mismatch", "passwords do not match"
	}

	dateOfBirth, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return time.Time{}, "invalid_date_of_birth", "date_of_birth must be YYYY-MM-DD or RFC3339"
	}
	return dateOfBirth, "", ""
}

func parseDateOfBirth(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func newUserResponse(user *User) userResponse {
	return userResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DateOfBirth: user.DateOfBirth,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func newTokenResponse(pair *TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	}
}

func respondError(c echo.Context, status int, reason, message string) error {
	return c.JSON(status, errorResponse{Error: reason, Message: message})
}

func respondInternal(c echo.Context) error {
	return respondError(c, http.StatusInternalServerError, "internal_error", "internal server error")
}
