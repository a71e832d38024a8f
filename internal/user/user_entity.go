package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms/internal/rbac"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Email        string    `gorm:"type:varchar(255);not null;unique"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(100);not null"`
	FirstName    string    `gorm:"type:varchar(100)"`
	LastName     string    `gorm:"type:varchar(100)"`
	EmployeeCode string    `gorm:"type:varchar(50)"`
	Department   string    `gorm:"type:varchar(100)"`

	EmploymentType string     `gorm:"type:varchar(30);not null;default:'Full Time'"`
	JoiningDate    *time.Time `gorm:"type:date"`
	IsActive       bool       `gorm:"not null;default:true"`

	// TokenVersion invalidates previously issued tokens when bumped; bumped
	// on every role-assignment change.
	TokenVersion int `gorm:"not null;default:0"`

	Roles []rbac.Role `gorm:"many2many:user_roles"`
	// Managers are the reporting managers of this user (many-to-many: a user
	// may report to several managers).
	Managers []*User `gorm:"many2many:user_managers;joinForeignKey:UserID;joinReferences:ManagerID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// FullName is used in approval listings and notifications.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
