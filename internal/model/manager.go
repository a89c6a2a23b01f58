package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Manager is a companion who can be assigned to reservations.
type Manager struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Name          string          `gorm:"size:100;not null"`
	Status        ManagerStatus   `gorm:"size:20;not null;index"`
	Grade         Grade           `gorm:"size:20;not null"`
	Areas         []string        `gorm:"type:text;serializer:json"`
	ServiceTypes  []ServiceType   `gorm:"type:text;serializer:json"`
	Rating        decimal.Decimal `gorm:"type:numeric(2,1);not null;default:0"`
	TotalServices int             `gorm:"not null;default:0"`
	IsVolunteer   bool            `gorm:"not null;default:false"`
	Introduction  string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`

	// Associations
	Windows []ScheduleWindow `gorm:"foreignKey:ManagerID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a random id when none is set.
func (m *Manager) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ServesArea reports whether area is in the manager's service area set.
func (m *Manager) ServesArea(area string) bool {
	return slices.Contains(m.Areas, area)
}

// Offers reports whether the manager takes the given service type. An empty set means all.
func (m *Manager) Offers(t ServiceType) bool {
	return len(m.ServiceTypes) == 0 || slices.Contains(m.ServiceTypes, t)
}

// ScheduleWindow is a block of a day a manager has declared.
type ScheduleWindow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ManagerID   uuid.UUID `gorm:"type:uuid;not null;index:idx_schedule_manager_date,priority:1"`
	Date        string    `gorm:"size:10;not null;index:idx_schedule_manager_date,priority:2"`
	StartTime   string    `gorm:"size:5;not null"`
	EndTime     string    `gorm:"size:5;not null"`
	IsAvailable bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName keeps the table named after the manager-owned concept.
func (ScheduleWindow) TableName() string {
	return "manager_schedule_windows"
}
