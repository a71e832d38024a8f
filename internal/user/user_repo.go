package user

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"hrms/internal/company"
	"hrms/internal/rbac"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, companyID, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]User, error)
	Update(ctx context.Context, u *User) error

	ReplaceRoles(ctx context.Context, u *User, roles []rbac.Role) error
	ReplaceManagers(ctx context.Context, u *User, managers []*User) error
	BumpTokenVersion(ctx context.Context, id string) error

	// JoiningDate returns the user's joining date, nil if none is set.
	JoiningDate(ctx context.Context, companyID, id string) (*time.Time, error)

	// IsManagerOf reports whether managerID appears in userID's reporting
	// managers. Used by the authorization gate as a permission fallback.
	IsManagerOf(ctx context.Context, managerID, userID string) (bool, error)
	SubordinateIDs(ctx context.Context, managerID string) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	// ListActive returns id and company for every active user, across
	// companies. Batch jobs walk this list.
	ListActive(ctx context.Context) ([]User, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Preload("Roles.Permissions").
		Preload("Managers").
		Where("id = ?", id).
		First(&u).Error
	return &u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Where("email = ?", email).
		First(&u).Error
	return &u, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Preload("Roles").
		Order("first_name ASC, last_name ASC").
		Find(&users).Error
	return users, err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *repository) ReplaceRoles(ctx context.Context, u *User, roles []rbac.Role) error {
	return r.db.WithContext(ctx).Model(u).Association("Roles").Replace(roles)
}

func (r *repository) ReplaceManagers(ctx context.Context, u *User, managers []*User) error {
	return r.db.WithContext(ctx).Model(u).Association("Managers").Replace(managers)
}

func (r *repository) BumpTokenVersion(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}

func (r *repository) JoiningDate(ctx context.Context, companyID, id string) (*time.Time, error) {
	var u User
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Select("joining_date").
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return u.JoiningDate, nil
}

func (r *repository) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_managers").
		Where("user_id = ? AND manager_id = ?", userID, managerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SubordinateIDs(ctx context.Context, managerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("user_managers").
		Where("manager_id = ?", managerID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *repository) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("is_active = true").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) ListActive(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Select("id", "company_id").
		Where("is_active = true").
		Find(&users).Error
	return users, err
}
