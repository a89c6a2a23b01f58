package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/reservation"
)

// GetAvailableManagers lists managers free at the requested slot, best rated first.
func (h *Handler) GetAvailableManagers(c *gin.Context) {
	date, clock := c.Query("date"), c.Query("time")
	if date == "" || clock == "" {
		badRequest(c, "date and time are required")
		return
	}

	managers, err := h.svc.FindAvailableManagers(c.Request.Context(), date, clock, c.Query("area"), c.Query("service_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]managerResponse, len(managers))
	for i := range managers {
		out[i] = toManagerResponse(&managers[i])
	}
	c.JSON(http.StatusOK, gin.H{"managers": out})
}

type registerManagerRequest struct {
	UserID       uuid.UUID       `json:"user_id" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Grade        string          `json:"grade"`
	Status       string          `json:"status"`
	Areas        []string        `json:"areas"`
	ServiceTypes []string        `json:"service_types"`
	Rating       decimal.Decimal `json:"rating"`
	IsVolunteer  bool            `json:"is_volunteer"`
	Introduction string          `json:"introduction"`
}

// RegisterManager creates a manager profile for an existing user.
func (h *Handler) RegisterManager(c *gin.Context) {
	var req registerManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	m, err := h.svc.RegisterManager(c.Request.Context(), actor(c), reservation.ManagerInput{
		UserID:       req.UserID,
		Name:         req.Name,
		Grade:        req.Grade,
		Status:       req.Status,
		Areas:        req.Areas,
		ServiceTypes: req.ServiceTypes,
		Rating:       req.Rating,
		IsVolunteer:  req.IsVolunteer,
		Introduction: req.Introduction,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toManagerResponse(m))
}

type managerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetManagerStatus activates, deactivates or suspends a manager.
func (h *Handler) SetManagerStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req managerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.svc.SetManagerStatus(c.Request.Context(), actor(c), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMySchedules returns the caller's schedule windows.
func (h *Handler) ListMySchedules(c *gin.Context) {
	windows, err := h.svc.ListWindows(c.Request.Context(), actor(c), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]windowResponse, len(windows))
	for i := range windows {
		out[i] = toWindowResponse(&windows[i])
	}
	c.JSON(http.StatusOK, gin.H{"schedules": out})
}

type windowRequest struct {
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	IsAvailable *bool  `json:"is_available"`
}

// CreateMySchedule adds a schedule window for the caller.
func (h *Handler) CreateMySchedule(c *gin.Context) {
	var req windowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	w, err := h.svc.AddWindow(c.Request.Context(), actor(c), reservation.WindowInput{
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWindowResponse(w))
}

// DeleteMySchedule removes one of the caller's schedule windows.
func (h *Handler) DeleteMySchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	if err := h.svc.RemoveWindow(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
