package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"companion-booking-backend/internal/pricing"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/verification"
)

// respondError writes the JSON error body for err and aborts the request.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	body := gin.H{"error": err.Error(), "code": code}

	switch status {
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		body["error"] = "internal server error"
	case http.StatusConflict:
		if code == "conflict" {
			body["retryable"] = true
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, reservation.ErrValidation),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, verification.ErrInvalidPhone):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, verification.ErrInvalidCode),
		errors.Is(err, verification.ErrInvalidToken):
		return http.StatusBadRequest, "verification_failed"
	case errors.Is(err, reservation.ErrInvalidTransition):
		return http.StatusBadRequest, "invalid_transition"
	case errors.Is(err, reservation.ErrManagerUnavailable):
		return http.StatusConflict, "manager_unavailable"
	case errors.Is(err, reservation.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, reservation.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, reservation.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal"
}

// badRequest reports a malformed body or parameter.
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "validation"})
}
