package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reservation is a booked escort service.
// At most one reservation may hold a given manager slot; NULL manager ids never collide.
type Reservation struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CustomerID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	ManagerID          *uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_reservation_manager_slot,priority:1"`
	RequestedManagerID *uuid.UUID        `gorm:"type:uuid;index"`
	ServiceType        ServiceType       `gorm:"size:30;not null"`
	ScheduledDate      string            `gorm:"size:10;not null;index;uniqueIndex:idx_reservation_manager_slot,priority:2"`
	ScheduledTime      string            `gorm:"size:5;not null;uniqueIndex:idx_reservation_manager_slot,priority:3"`
	EstimatedHours     decimal.Decimal   `gorm:"type:numeric(3,1);not null"`
	HospitalName       string            `gorm:"size:200;not null"`
	HospitalAddress    string            `gorm:"type:text"`
	HospitalDepartment string            `gorm:"size:100"`
	PickupAddress      string            `gorm:"type:text"`
	ContactPhone       string            `gorm:"size:20"` // Verified guardian phone, optional
	Symptoms           string            `gorm:"type:text"`
	SpecialRequests    string            `gorm:"type:text"`
	Price              decimal.Decimal   `gorm:"type:numeric(10,0);not null"`
	Status             ReservationStatus `gorm:"size:30;not null;index"`
	CancelReason       string            `gorm:"type:text"`
	Version            int               `gorm:"not null;default:1"`
	ConfirmedAt        *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// BeforeCreate assigns a random id when none is set.
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}

// ReservationStatusLog records one lifecycle transition.
type ReservationStatusLog struct {
	ID            int64             `gorm:"primaryKey;autoIncrement"`
	ReservationID uuid.UUID         `gorm:"type:uuid;not null;index"`
	FromStatus    ReservationStatus `gorm:"size:30"`
	ToStatus      ReservationStatus `gorm:"size:30;not null"`
	ActorID       uuid.UUID         `gorm:"type:uuid;not null"`
	ActorRole     Role              `gorm:"size:20;not null"`
	ManagerID     *uuid.UUID        `gorm:"type:uuid"` // Manager holding the slot at transition time
	Reason        string            `gorm:"type:text"`
	CreatedAt     time.Time         `gorm:"not null"`
}
