package rbac

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	UpsertPermission(ctx context.Context, entry CatalogEntry) (*Permission, error)
	DeprecateMissing(ctx context.Context, activeKeys []string) error
	ListActiveKeys(ctx context.Context) ([]string, error)
	FindPermissionsByKeys(ctx context.Context, keys []string) ([]Permission, error)

	ListSystemRoles(ctx context.Context) ([]Role, error)
	ReplaceRolePermissions(ctx context.Context, role *Role, perms []Permission) error

	CreateRole(ctx context.Context, role *Role) error
	FindRoleByID(ctx context.Context, companyID, id string) (*Role, error)
	FindAllRolesByCompany(ctx context.Context, companyID string) ([]Role, error)
	UpdateRole(ctx context.Context, role *Role) error

	// BumpMemberTokenVersions invalidates outstanding sessions of every user
	// holding the role, forcing re-authentication with the new permission set.
	BumpMemberTokenVersions(ctx context.Context, roleID string) error
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

func (r *repository) UpsertPermission(ctx context.Context, entry CatalogEntry) (*Permission, error) {
	p := Permission{
		Key:         entry.Key,
		Module:      entry.Module,
		Description: entry.Description,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"module", "description", "is_deprecated", "updated_at"}),
		}).
		Create(&p).Error
	if err != nil {
		return nil, err
	}

	var saved Permission
	if err := r.db.WithContext(ctx).Where("key = ?", entry.Key).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *repository) DeprecateMissing(ctx context.Context, activeKeys []string) error {
	return r.db.WithContext(ctx).
		Model(&Permission{}).
		Where("key NOT IN ?", activeKeys).
		Update("is_deprecated", true).Error
}

func (r *repository) ListActiveKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&Permission{}).
		Where("is_deprecated = false").
		Pluck("key", &keys).Error
	return keys, err
}

func (r *repository) FindPermissionsByKeys(ctx context.Context, keys []string) ([]Permission, error) {
	var perms []Permission
	err := r.db.WithContext(ctx).
		Where("key IN ?", keys).
		Find(&perms).Error
	return perms, err
}

func (r *repository) ListSystemRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := r.db.WithContext(ctx).
		Where("is_system = true").
		Find(&roles).Error
	return roles, err
}

func (r *repository) ReplaceRolePermissions(ctx context.Context, role *Role, perms []Permission) error {
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Replace(perms)
}

func (r *repository) CreateRole(ctx context.Context, role *Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *repository) FindRoleByID(ctx context.Context, companyID, id string) (*Role, error) {
	var role Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("company_id = ?", companyID).
		Where("id = ?", id).
		First(&role).Error
	return &role, err
}

func (r *repository) FindAllRolesByCompany(ctx context.Context, companyID string) ([]Role, error) {
	var roles []Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}

func (r *repository) UpdateRole(ctx context.Context, role *Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *repository) BumpMemberTokenVersions(ctx context.Context, roleID string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users SET token_version = token_version + 1
		WHERE id IN (SELECT user_id FROM user_roles WHERE role_id = ?)`,
		roleID,
	).Error
}
