package rbac

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission is one grantable capability key, e.g. "timesheet.approve".
// Keys removed from the static catalog are marked deprecated instead of
// deleted: roles already holding them keep working until the role is edited.
type Permission struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Key          string    `gorm:"type:varchar(100);not null;unique"`
	Module       string    `gorm:"type:varchar(50);not null"`
	Description  string    `gorm:"type:text"`
	IsDeprecated bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Permission) TableName() string {
	return "permissions"
}

// Role groups permissions per company. IsSystem marks the super-admin role:
// holders bypass every permission check.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_roles_company_name"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_roles_company_name"`
	Description string    `gorm:"type:text"`
	IsSystem    bool      `gorm:"not null;default:false"`
	IsActive    bool      `gorm:"not null;default:true"`
	Permissions []Permission `gorm:"many2many:role_permissions"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Role) TableName() string {
	return "roles"
}
