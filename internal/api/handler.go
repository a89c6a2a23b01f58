package api

import (
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"companion-booking-backend/internal/mw"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
	"companion-booking-backend/internal/verification"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc      *reservation.Service
	verifier *verification.Service
	store    store.Store
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *reservation.Service, verifier *verification.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		svc:      svc,
		verifier: verifier,
		store:    s,
		webpush:  webpushOptions,
	}
}

// actor returns the authenticated actor. Routes using it are always behind mw.Auth.
func actor(c *gin.Context) reservation.Actor {
	a, _ := mw.ActorFrom(c)
	return a
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}
