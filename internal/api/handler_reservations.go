package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
)

type createReservationRequest struct {
	CustomerID         uuid.UUID       `json:"customer_id"` // admins only
	ServiceType        string          `json:"service_type" binding:"required"`
	ScheduledDate      string          `json:"scheduled_date" binding:"required"`
	ScheduledTime      string          `json:"scheduled_time" binding:"required"`
	EstimatedHours     decimal.Decimal `json:"estimated_hours"`
	HospitalName       string          `json:"hospital_name" binding:"required"`
	HospitalAddress    string          `json:"hospital_address"`
	HospitalDepartment string          `json:"hospital_department"`
	PickupAddress      string          `json:"pickup_address"`
	Symptoms           string          `json:"symptoms"`
	SpecialRequests    string          `json:"special_requests"`
	ManagerID          *uuid.UUID      `json:"manager_id"`
	VerificationToken  string          `json:"verification_token"`
}

// CreateReservation books a new pending reservation.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	// A verified phone travels with the booking as the guardian contact. The token is
	// only spent once the booking itself is valid.
	var claim func(ctx context.Context) (string, error)
	if token := req.VerificationToken; token != "" {
		claim = func(ctx context.Context) (string, error) {
			return h.verifier.ConsumeToken(ctx, token)
		}
	}

	r, err := h.svc.Create(c.Request.Context(), actor(c), reservation.CreateInput{
		CustomerID:         req.CustomerID,
		ServiceType:        req.ServiceType,
		ScheduledDate:      req.ScheduledDate,
		ScheduledTime:      req.ScheduledTime,
		EstimatedHours:     req.EstimatedHours,
		HospitalName:       req.HospitalName,
		HospitalAddress:    req.HospitalAddress,
		HospitalDepartment: req.HospitalDepartment,
		PickupAddress:      req.PickupAddress,
		ClaimContact:       claim,
		Symptoms:           req.Symptoms,
		SpecialRequests:    req.SpecialRequests,
		ManagerID:          req.ManagerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(r))
}

// ListReservations returns the reservations visible to the caller.
func (h *Handler) ListReservations(c *gin.Context) {
	f := store.ReservationFilter{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	if raw := c.Query("status"); raw != "" {
		st, err := model.ParseReservationStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Status = st
	}
	var ok bool
	if f.Limit, ok = intQuery(c, "limit"); !ok {
		return
	}
	if f.Offset, ok = intQuery(c, "offset"); !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]reservationResponse, len(list))
	for i := range list {
		out[i] = toReservationResponse(&list[i])
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out})
}

// GetReservation returns one reservation.
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetReservationHistory returns the transition log of a reservation.
func (h *Handler) GetReservationHistory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	logs, err := h.svc.History(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]statusLogResponse, len(logs))
	for i, l := range logs {
		out[i] = statusLogResponse{
			FromStatus: l.FromStatus,
			ToStatus:   l.ToStatus,
			ActorID:    l.ActorID,
			ActorRole:  l.ActorRole,
			ManagerID:  l.ManagerID,
			Reason:     l.Reason,
			CreatedAt:  l.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// ChangeReservationStatus moves a reservation along its lifecycle.
func (h *Handler) ChangeReservationStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	r, err := h.svc.ChangeStatus(c.Request.Context(), actor(c), id, model.ReservationStatus(req.Status), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

type assignRequest struct {
	ManagerID uuid.UUID `json:"manager_id" binding:"required"`
}

// AssignManager confirms a pending reservation with a manager.
func (h *Handler) AssignManager(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ManagerID == uuid.Nil {
		badRequest(c, "manager_id is required")
		return
	}
	r, err := h.svc.AssignManager(c.Request.Context(), actor(c), id, req.ManagerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelReservation cancels a reservation. The reason may come in the body or the query string.
func (h *Handler) CancelReservation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req := cancelRequest{Reason: c.Query("reason")}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
	}
	r, err := h.svc.Cancel(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetSettlement returns the platform fee and manager revenue of a reservation.
func (h *Handler) GetSettlement(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	r, rev, err := h.svc.Settlement(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, revenueResponse{
		ReservationID:  r.ID,
		Total:          rev.Total,
		FeeRate:        rev.FeeRate,
		PlatformFee:    rev.PlatformFee,
		ManagerRevenue: rev.ManagerRevenue,
	})
}
