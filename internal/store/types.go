package store

import (
	"github.com/google/uuid"

	"companion-booking-backend/internal/model"
)

// ReservationFilter narrows ListReservations. Zero fields are ignored.
type ReservationFilter struct {
	CustomerID *uuid.UUID
	ManagerID  *uuid.UUID
	Status     model.ReservationStatus
	DateFrom   string
	DateTo     string
	Limit      int
	Offset     int
}

// DefaultListLimit caps list queries when the caller gives no limit.
const DefaultListLimit = 50

// MaxListLimit is the largest page size honoured.
const MaxListLimit = 200

func (f ReservationFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	}
	return f.Limit
}
