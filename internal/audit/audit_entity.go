package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry is append-only; nothing in the system updates or deletes rows.
type Entry struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	Action      string         `gorm:"column:action;type:varchar(80);not null;index"`
	Module      string         `gorm:"column:module;type:varchar(40);not null"`
	EntityID    string         `gorm:"column:entity_id;type:varchar(60);not null;index"`
	PerformedBy *uuid.UUID     `gorm:"column:performed_by;type:uuid"`
	Details     datatypes.JSON `gorm:"column:details;type:jsonb"`
	IPAddress   *string        `gorm:"column:ip_address;type:varchar(45)"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "audit_entries"
}
