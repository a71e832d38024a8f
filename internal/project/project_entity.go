package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeneralWorkName is the fallback project that clock-out auto-logs land in.
const GeneralWorkName = "General Work"

type Project struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_project_company_name"`
	Name      string         `gorm:"column:name;type:varchar(150);not null;uniqueIndex:idx_project_company_name"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Project) TableName() string {
	return "projects"
}

type Task struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	ProjectID uuid.UUID      `gorm:"column:project_id;type:uuid;not null;uniqueIndex:idx_task_project_name"`
	Name      string         `gorm:"column:name;type:varchar(150);not null;uniqueIndex:idx_task_project_name"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
	Project   *Project       `gorm:"foreignKey:ProjectID;references:ID"`
}

func (Task) TableName() string {
	return "tasks"
}
