package attendance

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"hrms/internal/company"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, a *Attendance) error
	FindByID(ctx context.Context, companyID, id string) (*Attendance, error)
	FindByUserAndDate(ctx context.Context, companyID, userID string, date time.Time) (*Attendance, error)
	FindByUserAndRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]Attendance, error)
	FindByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]Attendance, error)
	FindPendingByUsers(ctx context.Context, companyID string, userIDs []string) ([]Attendance, error)
	CountPendingByCompany(ctx context.Context, companyID string) (int64, error)
	Update(ctx context.Context, a *Attendance) error
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

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		First(&a).Error
	return &a, err
}

func (r *repository) FindByUserAndDate(ctx context.Context, companyID, userID string, date time.Time) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id = ?", userID).
		Where("date = ?", date.Format("2006-01-02")).
		First(&a).Error
	return &a, err
}

func (r *repository) FindByUserAndRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id = ?", userID).
		Where("date >= ? AND date < ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("date >= ? AND date < ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("date DESC, user_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindPendingByUsers(ctx context.Context, companyID string, userIDs []string) ([]Attendance, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id IN ?", userIDs).
		Where("approval_status = ?", ApprovalPending).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountPendingByCompany(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Scopes(company.Scope(companyID)).
		Where("approval_status = ?", ApprovalPending).
		Count(&n).Error
	return n, err
}

func (r *repository) Update(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Save(a).Error
}
