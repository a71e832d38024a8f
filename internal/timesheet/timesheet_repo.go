package timesheet

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"hrms/internal/company"
)

//go:generate mockgen -source=timesheet_repo.go -destination=mock/timesheet_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateTimesheet(ctx context.Context, t *Timesheet) error
	FindTimesheet(ctx context.Context, companyID, userID, month string) (*Timesheet, error)
	FindTimesheetByID(ctx context.Context, companyID, id string) (*Timesheet, error)
	FindSubmittedByUsers(ctx context.Context, companyID string, userIDs []string) ([]Timesheet, error)
	UpdateTimesheet(ctx context.Context, t *Timesheet) error

	CreateWorkLog(ctx context.Context, w *WorkLog) error
	FindWorkLogByID(ctx context.Context, companyID, id string) (*WorkLog, error)
	FindWorkLogByTaskUserDay(ctx context.Context, companyID, taskID, userID string, date time.Time) (*WorkLog, error)
	FindWorkLogsByUserRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]WorkLog, error)
	UpdateWorkLog(ctx context.Context, w *WorkLog) error
	DeleteWorkLog(ctx context.Context, companyID, id string) error

	// SetStatusByUserRange cascades a terminal status to every work log of
	// the user inside the range.
	SetStatusByUserRange(ctx context.Context, companyID, userID string, start, end time.Time, status string, reason *string) error
	// RejectByIDs rejects only the named entries.
	RejectByIDs(ctx context.Context, companyID string, ids []string, reason string) error
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

func (r *repository) CreateTimesheet(ctx context.Context, t *Timesheet) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindTimesheet(ctx context.Context, companyID, userID, month string) (*Timesheet, error) {
	var t Timesheet
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id = ?", userID).
		Where("month = ?", month).
		First(&t).Error
	return &t, err
}

func (r *repository) FindTimesheetByID(ctx context.Context, companyID, id string) (*Timesheet, error) {
	var t Timesheet
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		First(&t).Error
	return &t, err
}

func (r *repository) FindSubmittedByUsers(ctx context.Context, companyID string, userIDs []string) ([]Timesheet, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []Timesheet
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("user_id IN ?", userIDs).
		Where("status = ?", StatusSubmitted).
		Order("month DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateTimesheet(ctx context.Context, t *Timesheet) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *repository) CreateWorkLog(ctx context.Context, w *WorkLog) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *repository) FindWorkLogByID(ctx context.Context, companyID, id string) (*WorkLog, error) {
	var w WorkLog
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Preload("Task.Project").
		Where("id = ?", id).
		First(&w).Error
	return &w, err
}

func (r *repository) FindWorkLogByTaskUserDay(ctx context.Context, companyID, taskID, userID string, date time.Time) (*WorkLog, error) {
	var w WorkLog
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("task_id = ?", taskID).
		Where("user_id = ?", userID).
		Where("date = ?", date.Format("2006-01-02")).
		First(&w).Error
	return &w, err
}

func (r *repository) FindWorkLogsByUserRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]WorkLog, error) {
	var rows []WorkLog
	err := r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Preload("Task.Project").
		Where("user_id = ?", userID).
		Where("date >= ? AND date < ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("date ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateWorkLog(ctx context.Context, w *WorkLog) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *repository) DeleteWorkLog(ctx context.Context, companyID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(company.Scope(companyID)).
		Where("id = ?", id).
		Delete(&WorkLog{}).Error
}

func (r *repository) SetStatusByUserRange(ctx context.Context, companyID, userID string, start, end time.Time, status string, reason *string) error {
	updates := map[string]any{"status": status}
	if reason != nil {
		updates["rejection_reason"] = *reason
	} else {
		updates["rejection_reason"] = nil
	}
	return r.db.WithContext(ctx).
		Model(&WorkLog{}).
		Scopes(company.Scope(companyID)).
		Where("user_id = ?", userID).
		Where("date >= ? AND date < ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Updates(updates).Error
}

func (r *repository) RejectByIDs(ctx context.Context, companyID string, ids []string, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&WorkLog{}).
		Scopes(company.Scope(companyID)).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":           EntryRejected,
			"rejection_reason": reason,
		}).Error
}
