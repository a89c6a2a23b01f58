package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
	"companion-booking-backend/internal/pricing"
)

// Healthz reports whether the service can reach its database.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type serviceResponse struct {
	Type       model.ServiceType `json:"type"`
	Label      string            `json:"label"`
	HourlyRate decimal.Decimal   `json:"hourly_rate"`
}

// GetServices returns the service catalog with hourly rates.
func (h *Handler) GetServices(c *gin.Context) {
	out := make([]serviceResponse, len(model.ServiceTypes))
	for i, t := range model.ServiceTypes {
		out[i] = serviceResponse{Type: t, Label: t.Label(), HourlyRate: pricing.HourlyRate(t)}
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

type quoteRequest struct {
	ServiceType    string          `json:"service_type" binding:"required"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	ScheduledDate  string          `json:"scheduled_date" binding:"required"`
	ScheduledTime  string          `json:"scheduled_time" binding:"required"`
	DistanceKm     decimal.Decimal `json:"distance_km"`
	Discount       decimal.Decimal `json:"discount"`
}

// PostQuote prices a prospective booking without storing anything.
func (h *Handler) PostQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	serviceType, err := model.ParseServiceType(req.ServiceType)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	engine := h.svc.Pricing()
	date, err := parse.ParseDate(req.ScheduledDate, engine.Location())
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	clock, err := parse.ParseClock(req.ScheduledTime)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := engine.Quote(pricing.Input{
		ServiceType: serviceType,
		Hours:       req.EstimatedHours,
		Date:        date,
		Time:        clock,
		DistanceKm:  req.DistanceKm,
		Discount:    req.Discount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBreakdownResponse(b))
}
