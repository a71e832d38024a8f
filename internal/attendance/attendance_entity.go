package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	statusPresent = "PRESENT"
	statusLate    = "LATE"
)

const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Attendance is one user-day. Date is the org-timezone day bucket; the
// composite unique index is the real duplicate-day guard, the service
// pre-check only gives a friendlier error.
type Attendance struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	UserID          uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_attendance_user_date"`
	Date            time.Time      `gorm:"column:date;type:date;not null;uniqueIndex:idx_attendance_user_date"`
	ClockIn         *time.Time     `gorm:"column:clock_in;type:timestamptz"`
	ClockOut        *time.Time     `gorm:"column:clock_out;type:timestamptz"`
	Status          string         `gorm:"column:status;type:varchar(20);not null;default:PRESENT"`
	IsManualEntry   bool           `gorm:"column:is_manual_entry;not null;default:false"`
	IPAddress       *string        `gorm:"column:ip_address;type:varchar(45)"`
	Notes           *string        `gorm:"column:notes;type:text"`
	ApprovalStatus  string         `gorm:"column:approval_status;type:varchar(20);not null;default:APPROVED"`
	ApproverID      *uuid.UUID     `gorm:"column:approver_id;type:uuid"`
	RejectionReason *string        `gorm:"column:rejection_reason;type:text"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Attendance) TableName() string {
	return "attendances"
}
