package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AccrualMonthly = "Monthly"
	AccrualYearly  = "Yearly"
	AccrualNone    = "None"
)

const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
	StatusCancelled = "Cancelled"
)

// Config is the company-wide policy for one leave type (CL, SL, EL, LOP,
// WFH). Policy is global, balances and requests are per user.
type Config struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LeaveType            string         `gorm:"type:varchar(10);not null;uniqueIndex"`
	Name                 string         `gorm:"type:varchar(100);not null"`
	Description          string         `gorm:"type:text"`
	IsPaid               bool           `gorm:"not null;default:true"`
	AccrualType          string         `gorm:"type:varchar(10);not null;default:'None'"`
	AccrualAmount        float64        `gorm:"not null;default:0"`
	CarryForward         bool           `gorm:"not null;default:false"`
	MaxCarryForward      float64        `gorm:"not null;default:0"`
	MaxLimitPerYear      float64        `gorm:"not null;default:0"`
	SandwichRule         bool           `gorm:"not null;default:false"`
	AllowNegativeBalance bool           `gorm:"not null;default:false"`
	AllowBackdated       bool           `gorm:"not null;default:false"`
	IsActive             bool           `gorm:"not null;default:true"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (Config) TableName() string {
	return "leave_configs"
}

type Holiday struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_holiday_company_date"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_holiday_company_date"`
	Name      string    `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Holiday) TableName() string {
	return "leave_holidays"
}

// Balance tracks one (user, type, year). Closing is always derived as
// Opening+Accrued-Utilized-Encashed and never stored.
type Balance struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_user_type_year"`
	LeaveType string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_balance_user_type_year"`
	Year      int       `gorm:"not null;uniqueIndex:idx_balance_user_type_year"`
	Opening   float64   `gorm:"not null;default:0"`
	Accrued   float64   `gorm:"not null;default:0"`
	Utilized  float64   `gorm:"not null;default:0"`
	Encashed  float64   `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Balance) TableName() string {
	return "leave_balances"
}

// Available is what a new request draws against.
func (b Balance) Available() float64 {
	return b.Opening + b.Accrued - b.Utilized
}

// Closing is the year-end figure carried into the next year's opening.
func (b Balance) Closing() float64 {
	return b.Opening + b.Accrued - b.Utilized - b.Encashed
}

type Request struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_leave_requests_user_dates"`
	LeaveType       string     `gorm:"type:varchar(10);not null"`
	StartDate       time.Time  `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	EndDate         time.Time  `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	IsHalfDay       bool       `gorm:"not null;default:false"`
	HalfDaySession  *string    `gorm:"type:varchar(20)"`
	DaysCount       float64    `gorm:"not null"`
	Reason          string     `gorm:"type:text"`
	Status          string     `gorm:"type:varchar(20);not null;default:'Pending';index:idx_leave_requests_company_status"`
	ApproverID      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`
	// AuditTrail is append-only; entries are added, never rewritten.
	AuditTrail datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DecidedAt  *time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Request) TableName() string {
	return "leave_requests"
}
