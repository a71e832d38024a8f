package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"hrms/internal/company"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateConfig(ctx context.Context, c *Config) error
	FindConfigByType(ctx context.Context, leaveType string) (*Config, error)
	FindAllConfigs(ctx context.Context) ([]Config, error)
	FindActiveConfigs(ctx context.Context) ([]Config, error)
	UpdateConfig(ctx context.Context, c *Config) error

	CreateHoliday(ctx context.Context, h *Holiday) error
	FindHolidaysInRange(ctx context.Context, companyID string, start, end time.Time) ([]Holiday, error)
	FindAllHolidays(ctx context.Context, companyID string) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, companyID, id string) error

	CreateBalance(ctx context.Context, b *Balance) error
	FindBalance(ctx context.Context, userID, leaveType string, year int) (*Balance, error)
	FindBalancesByUserYear(ctx context.Context, userID string, year int) ([]Balance, error)
	UpdateBalance(ctx context.Context, b *Balance) error

	CreateRequest(ctx context.Context, r *Request) error
	FindRequestByID(ctx context.Context, companyID, id string) (*Request, error)
	FindRequestsByUser(ctx context.Context, companyID, userID string) ([]Request, error)
	FindPendingByUsers(ctx context.Context, companyID string, userIDs []string) ([]Request, error)
	UpdateRequest(ctx context.Context, r *Request) error
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

func (r *repository) CreateConfig(ctx context.Context, c *Config) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindConfigByType(ctx context.Context, leaveType string) (*Config, error) {
	var c Config
	err := r.db.WithContext(ctx).
		Where("leave_type = ?", leaveType).
		First(&c).Error
	return &c, err
}

func (r *repository) FindAllConfigs(ctx context.Context) ([]Config, error) {
	var rows []Config
	err := r.db.WithContext(ctx).
		Order("leave_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindActiveConfigs(ctx context.Context) ([]Config, error) {
	var rows []Config
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("leave_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateConfig(ctx context.Context, c *Config) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *repository) CreateHoliday(ctx context.Context, h *Holiday) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *repository) FindHolidaysInRange(ctx context.Context, companyID string, start, end time.Time) ([]Holiday, error) {
	var rows []Holiday
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("date >= ? AND date <= ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllHolidays(ctx context.Context, companyID string) ([]Holiday, error) {
	var rows []Holiday
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) DeleteHoliday(ctx context.Context, companyID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		Delete(&Holiday{}).Error
}

func (r *repository) CreateBalance(ctx context.Context, b *Balance) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) FindBalance(ctx context.Context, userID, leaveType string, year int) (*Balance, error) {
	var b Balance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("leave_type = ?", leaveType).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindBalancesByUserYear(ctx context.Context, userID string, year int) ([]Balance, error) {
	var rows []Balance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("year = ?", year).
		Order("leave_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateBalance(ctx context.Context, b *Balance) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *repository) CreateRequest(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindRequestByID(ctx context.Context, companyID, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		First(&req).Error
	return &req, err
}

func (r *repository) FindRequestsByUser(ctx context.Context, companyID, userID string) ([]Request, error) {
	var rows []Request
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindPendingByUsers(ctx context.Context, companyID string, userIDs []string) ([]Request, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []Request
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id IN ?", userIDs).
		Where("status = ?", StatusPending).
		Order("start_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateRequest(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Save(req).Error
}
