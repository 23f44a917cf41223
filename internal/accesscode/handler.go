package accesscode

import (
	"errors"
	"net/http"

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

type generateRequest struct {
	Tier  string `json:"tier" form:"tier" query:"tier"`
	Count int    `json:"count" form:"count" query:"count"`
}

type generateResponse struct {
	Tier  Tier     `json:"tier"`
	Codes []string `json:"codes"`
}

type verifyRequest struct {
	Code string `json:"code" form:"code"`
}

type verifyResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
	Tier  Tier   `json:"tier,omitempty"`
}

func (h *Handler) GenerateCodes(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}

	tier := TierNormal
	if req.Tier != "" {
		parsed, err := ParseTier(req.Tier)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "invalid_tier", "tier must be normal or premium")
		}
		tier = parsed
	}
	if req.Count < 0 {
		return respondError(c, http.StatusBadRequest, "invalid_count", "count must not be negative")
	}

	codes, err := h.service.GenerateBatch(tier, req.Count)
	if err != nil {
		if errors.Is(err, ErrGenerationExhausted) {
			return respondError(c, http.StatusInternalServerError, "generation_exhausted",
				"could not generate enough unique codes")
		}
		h.log.Error("failed to generate access codes",
			zap.String("tier", string(tier)),
			zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusCreated, generateResponse{Tier: tier, Codes: codes})
}

func (h *Handler) VerifyCode(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}

	valid, tier, err := h.service.VerifyCode(req.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			return respondError(c, http.StatusBadRequest, "invalid_format",
				"code must be QRG or PREM followed by 8 digits")
		}
		h.log.Error("failed to verify access code", zap.Error(err))
		return respondInternal(c)
	}

	return c.JSON(http.StatusOK, verifyResponse{Code: req.Code, Valid: valid, Tier: tier})
}

func respondError(c echo.Context, status int, reason, message string) error {
	return c.JSON(status, errorResponse{Error: reason, Message: message})
}

func respondInternal(c echo.Context) error {
	return respondError(c, http.StatusInternalServerError, "internal_error", "internal server error")
}
