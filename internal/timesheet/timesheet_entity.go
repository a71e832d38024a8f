package timesheet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms/internal/project"
)

const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
)

const (
	EntryPending  = "PENDING"
	EntryApproved = "APPROVED"
	EntryRejected = "REJECTED"
)

// Timesheet is the per-user month envelope. It owns no entries; work logs
// are tied to it only through the (user, month date range) pair so the log
// table stays the single source of truth.
type Timesheet struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	UserID          uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_timesheet_user_month"`
	Month           string         `gorm:"column:month;type:varchar(7);not null;uniqueIndex:idx_timesheet_user_month"`
	Status          string         `gorm:"column:status;type:varchar(20);not null;default:DRAFT"`
	SubmittedAt     *time.Time     `gorm:"column:submitted_at;type:timestamptz"`
	ApproverID      *uuid.UUID     `gorm:"column:approver_id;type:uuid"`
	RejectionReason *string        `gorm:"column:rejection_reason;type:text"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Timesheet) TableName() string {
	return "timesheets"
}

type WorkLog struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	UserID          uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_worklog_task_user_day"`
	TaskID          uuid.UUID      `gorm:"column:task_id;type:uuid;not null;uniqueIndex:idx_worklog_task_user_day"`
	Date            time.Time      `gorm:"column:date;type:date;not null;uniqueIndex:idx_worklog_task_user_day"`
	Hours           float64        `gorm:"column:hours;not null"`
	Description     string         `gorm:"column:description;type:text"`
	Status          string         `gorm:"column:status;type:varchar(20);not null;default:PENDING"`
	RejectionReason *string        `gorm:"column:rejection_reason;type:text"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
	Task            *project.Task  `gorm:"foreignKey:TaskID;references:ID"`
}

func (WorkLog) TableName() string {
	return "work_logs"
}
