package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
)

// EventType names a reservation lifecycle event. It doubles as the AMQP routing suffix.
type EventType string

const (
	EventCreated   EventType = "created"
	EventConfirmed EventType = "confirmed"
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
)

// EventTypeFor maps the status a reservation entered to its event type.
func EventTypeFor(s model.ReservationStatus) EventType {
	switch s {
	case model.StatusPending:
		return EventCreated
	case model.StatusConfirmed:
		return EventConfirmed
	case model.StatusInProgress:
		return EventStarted
	case model.StatusCompleted:
		return EventCompleted
	case model.StatusCancelled:
		return EventCancelled
	}
	return EventType(s)
}

// Event is published after a reservation transition commits. It carries enough
// for payment and review consumers to act without querying the booking database.
type Event struct {
	ID            uuid.UUID               `json:"id"`
	Type          EventType               `json:"type"`
	ReservationID uuid.UUID               `json:"reservation_id"`
	CustomerID    uuid.UUID               `json:"customer_id"`
	ManagerID     *uuid.UUID              `json:"manager_id,omitempty"`
	ManagerUserID *uuid.UUID              `json:"manager_user_id,omitempty"`
	FromStatus    model.ReservationStatus `json:"from_status,omitempty"`
	Status        model.ReservationStatus `json:"status"`
	ServiceType   model.ServiceType       `json:"service_type"`
	ScheduledDate string                  `json:"scheduled_date"`
	ScheduledTime string                  `json:"scheduled_time"`
	Price         decimal.Decimal         `json:"price"`
	Reason        string                  `json:"reason,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// Message renders the push notification text for the event.
func (e Event) Message() string {
	when := e.ScheduledDate + " " + e.ScheduledTime
	switch e.Type {
	case EventCreated:
		return "새 예약 요청이 도착했습니다 (" + when + ")"
	case EventConfirmed:
		return "예약이 확정되었습니다 (" + when + ")"
	case EventStarted:
		return "동행 서비스가 시작되었습니다"
	case EventCompleted:
		return "동행 서비스가 완료되었습니다. 후기를 남겨주세요"
	case EventCancelled:
		return "예약이 취소되었습니다 (" + when + ")"
	}
	return "예약 상태가 변경되었습니다"
}

// Recipients returns the users who should receive a push for the event.
// A new request only concerns the requested manager.
func (e Event) Recipients() []uuid.UUID {
	if e.Type == EventCreated {
		if e.ManagerUserID == nil {
			return nil
		}
		return []uuid.UUID{*e.ManagerUserID}
	}
	out := []uuid.UUID{e.CustomerID}
	if e.ManagerUserID != nil && *e.ManagerUserID != e.CustomerID {
		out = append(out, *e.ManagerUserID)
	}
	return out
}
