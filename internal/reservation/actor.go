package reservation

import (
	"github.com/google/uuid"

	"companion-booking-backend/internal/model"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}
