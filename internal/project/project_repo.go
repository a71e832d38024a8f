package project

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"hrms/internal/company"
)

//go:generate mockgen -source=project_repo.go -destination=mock/project_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateProject(ctx context.Context, p *Project) error
	FindProjectByID(ctx context.Context, companyID, id string) (*Project, error)
	FindProjectByName(ctx context.Context, companyID, name string) (*Project, error)
	FindAllProjects(ctx context.Context, companyID string) ([]Project, error)
	UpdateProject(ctx context.Context, p *Project) error

	CreateTask(ctx context.Context, t *Task) error
	FindTaskByID(ctx context.Context, companyID, id string) (*Task, error)
	FindTaskByName(ctx context.Context, companyID, projectID, name string) (*Task, error)
	FindTasksByProject(ctx context.Context, companyID, projectID string) ([]Task, error)
	UpdateTask(ctx context.Context, t *Task) error
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

func (r *repository) CreateProject(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindProjectByID(ctx context.Context, companyID, id string) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		First(&p).Error
	return &p, err
}

func (r *repository) FindProjectByName(ctx context.Context, companyID, name string) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("name = ?", name).
		First(&p).Error
	return &p, err
}

func (r *repository) FindAllProjects(ctx context.Context, companyID string) ([]Project, error) {
	var rows []Project
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateProject(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) CreateTask(ctx context.Context, t *Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindTaskByID(ctx context.Context, companyID, id string) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Preload("Project").
		Where("id = ?", id).
		First(&t).Error
	return &t, err
}

func (r *repository) FindTaskByName(ctx context.Context, companyID, projectID, name string) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("project_id = ?", projectID).
		Where("name = ?", name).
		First(&t).Error
	return &t, err
}

func (r *repository) FindTasksByProject(ctx context.Context, companyID, projectID string) ([]Task, error) {
	var rows []Task
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateTask(ctx context.Context, t *Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}
