package model

import "fmt"

// ReservationStatus is the lifecycle state of a reservation. The zero value is invalid.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusInProgress ReservationStatus = "in_progress"
	StatusCompleted  ReservationStatus = "completed"
	StatusCancelled  ReservationStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// ActiveStatuses are the statuses that occupy a manager's time slot.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusInProgress}

// Next returns the statuses reachable from s in one step.
func (s ReservationStatus) Next() []ReservationStatus {
	switch s {
	case StatusPending:
		return []ReservationStatus{StatusConfirmed, StatusCancelled}
	case StatusConfirmed:
		return []ReservationStatus{StatusInProgress, StatusCancelled}
	case StatusInProgress:
		return []ReservationStatus{StatusCompleted, StatusCancelled}
	case StatusCompleted, StatusCancelled:
		return nil
	}
	return nil
}

// IsValid reports whether s is one of the known statuses.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, t := range s.Next() {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible. Unknown statuses count as terminal.
func (s ReservationStatus) IsTerminal() bool {
	return len(s.Next()) == 0
}

// HasManager reports whether a reservation in status s carries an assigned manager.
func (s ReservationStatus) HasManager() bool {
	switch s {
	case StatusConfirmed, StatusInProgress, StatusCompleted:
		return true
	case StatusPending, StatusCancelled:
		return false
	}
	return false
}

func (s ReservationStatus) String() string {
	return string(s)
}

// ParseReservationStatus converts a lowercase tag into a ReservationStatus.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %q", s)
	}
	return status, nil
}
