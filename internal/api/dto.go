package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/pricing"
)

// Money and hours are rendered as decimal strings, shopspring/decimal's default.
type reservationResponse struct {
	ID                 uuid.UUID               `json:"id"`
	CustomerID         uuid.UUID               `json:"customer_id"`
	ManagerID          *uuid.UUID              `json:"manager_id"`
	RequestedManagerID *uuid.UUID              `json:"requested_manager_id,omitempty"`
	ServiceType        model.ServiceType       `json:"service_type"`
	ServiceLabel       string                  `json:"service_label"`
	ScheduledDate      string                  `json:"scheduled_date"`
	ScheduledTime      string                  `json:"scheduled_time"`
	EstimatedHours     decimal.Decimal         `json:"estimated_hours"`
	HospitalName       string                  `json:"hospital_name"`
	HospitalAddress    string                  `json:"hospital_address,omitempty"`
	HospitalDepartment string                  `json:"hospital_department,omitempty"`
	PickupAddress      string                  `json:"pickup_address,omitempty"`
	ContactPhone       string                  `json:"contact_phone,omitempty"`
	Symptoms           string                  `json:"symptoms,omitempty"`
	SpecialRequests    string                  `json:"special_requests,omitempty"`
	Price              decimal.Decimal         `json:"price"`
	Status             model.ReservationStatus `json:"status"`
	CancelReason       string                  `json:"cancel_reason,omitempty"`
	Version            int                     `json:"version"`
	ConfirmedAt        *time.Time              `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time              `json:"started_at,omitempty"`
	CompletedAt        *time.Time              `json:"completed_at,omitempty"`
	CancelledAt        *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
}

func toReservationResponse(r *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		ManagerID:          r.ManagerID,
		RequestedManagerID: r.RequestedManagerID,
		ServiceType:        r.ServiceType,
		ServiceLabel:       r.ServiceType.Label(),
		ScheduledDate:      r.ScheduledDate,
		ScheduledTime:      r.ScheduledTime,
		EstimatedHours:     r.EstimatedHours,
		HospitalName:       r.HospitalName,
		HospitalAddress:    r.HospitalAddress,
		HospitalDepartment: r.HospitalDepartment,
		PickupAddress:      r.PickupAddress,
		ContactPhone:       r.ContactPhone,
		Symptoms:           r.Symptoms,
		SpecialRequests:    r.SpecialRequests,
		Price:              r.Price,
		Status:             r.Status,
		CancelReason:       r.CancelReason,
		Version:            r.Version,
		ConfirmedAt:        r.ConfirmedAt,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		CancelledAt:        r.CancelledAt,
		CreatedAt:          r.CreatedAt,
	}
}

type statusLogResponse struct {
	FromStatus model.ReservationStatus `json:"from_status,omitempty"`
	ToStatus   model.ReservationStatus `json:"to_status"`
	ActorID    uuid.UUID               `json:"actor_id"`
	ActorRole  model.Role              `json:"actor_role"`
	ManagerID  *uuid.UUID              `json:"manager_id,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

type managerResponse struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Name          string              `json:"name"`
	Status        model.ManagerStatus `json:"status"`
	Grade         model.Grade         `json:"grade"`
	Areas         []string            `json:"areas"`
	ServiceTypes  []model.ServiceType `json:"service_types"`
	Rating        decimal.Decimal     `json:"rating"`
	TotalServices int                 `json:"total_services"`
	IsVolunteer   bool                `json:"is_volunteer"`
	Introduction  string              `json:"introduction,omitempty"`
}

func toManagerResponse(m *model.Manager) managerResponse {
	areas := m.Areas
	if areas == nil {
		areas = []string{}
	}
	types := m.ServiceTypes
	if types == nil {
		types = []model.ServiceType{}
	}
	return managerResponse{
		ID:            m.ID,
		UserID:        m.UserID,
		Name:          m.Name,
		Status:        m.Status,
		Grade:         m.Grade,
		Areas:         areas,
		ServiceTypes:  types,
		Rating:        m.Rating,
		TotalServices: m.TotalServices,
		IsVolunteer:   m.IsVolunteer,
		Introduction:  m.Introduction,
	}
}

type windowResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

func toWindowResponse(w *model.ScheduleWindow) windowResponse {
	return windowResponse{
		ID:          w.ID,
		Date:        w.Date,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		IsAvailable: w.IsAvailable,
	}
}

type breakdownResponse struct {
	Base         decimal.Decimal `json:"base"`
	Distance     decimal.Decimal `json:"distance"`
	Urgency      decimal.Decimal `json:"urgency"`
	NightWeekend decimal.Decimal `json:"night_weekend"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

func toBreakdownResponse(b pricing.Breakdown) breakdownResponse {
	return breakdownResponse{
		Base:         b.Base,
		Distance:     b.Distance,
		Urgency:      b.Urgency,
		NightWeekend: b.NightWeekend,
		Subtotal:     b.Subtotal,
		Discount:     b.Discount,
		Total:        b.Total,
	}
}

type revenueResponse struct {
	ReservationID  uuid.UUID       `json:"reservation_id"`
	Total          decimal.Decimal `json:"total"`
	FeeRate        decimal.Decimal `json:"fee_rate"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	ManagerRevenue decimal.Decimal `json:"manager_revenue"`
}
