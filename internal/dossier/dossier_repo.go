package dossier

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"hrms/internal/company"
)

//go:generate mockgen -source=dossier_repo.go -destination=mock/dossier_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, p *Profile) error
	FindByUser(ctx context.Context, companyID, userID string) (*Profile, error)
	FindByID(ctx context.Context, companyID, id string) (*Profile, error)
	FindPendingByCompany(ctx context.Context, companyID string) ([]Profile, error)
	Update(ctx context.Context, p *Profile) error
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

func (r *repository) Create(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByUser(ctx context.Context, companyID, userID string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id = ?", userID).
		First(&p).Error
	return &p, err
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		First(&p).Error
	return &p, err
}

func (r *repository) FindPendingByCompany(ctx context.Context, companyID string) ([]Profile, error) {
	var profiles []Profile
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("hris_status = ?", HRISPendingApproval).
		Order("submitted_at asc").
		Find(&profiles).Error
	return profiles, err
}

func (r *repository) Update(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}
