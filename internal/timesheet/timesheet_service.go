package timesheet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hrms/internal/attendance"
	"hrms/internal/events"
	"hrms/internal/messaging/kafka"
	"hrms/internal/project"
	"hrms/internal/rbac"
	"hrms/internal/shared/apperror"
	"hrms/internal/shared/orgclock"
	timesheeterrors "hrms/internal/timesheet/errors"
)

// UserDirectory answers reporting-line listing for approval queues.
type UserDirectory interface {
	SubordinateIDs(ctx context.Context, managerID string) ([]string, error)
}

//go:generate mockgen -source=timesheet_service.go -destination=mock/timesheet_service_mock.go -package=mock
type Service interface {
	GetOrCreate(ctx context.Context, actor rbac.Principal, userID, month string) (TimesheetDetailResponse, error)
	LogWork(ctx context.Context, actor rbac.Principal, req LogWorkRequest) (WorkLogResponse, error)
	UpdateEntry(ctx context.Context, actor rbac.Principal, entryID string, req UpdateEntryRequest) (WorkLogResponse, error)
	DeleteEntry(ctx context.Context, actor rbac.Principal, entryID string) error
	Submit(ctx context.Context, actor rbac.Principal, month string) (TimesheetResponse, error)
	Decide(ctx context.Context, actor rbac.Principal, timesheetID string, req DecisionRequest) (TimesheetResponse, error)
	PendingApprovals(ctx context.Context, actor rbac.Principal) ([]TimesheetResponse, error)

	// AutoLogClockOut books the day's clocked hours against the fallback
	// task. Called by attendance on clock-out.
	AutoLogClockOut(ctx context.Context, companyID, userID string, day time.Time, hours float64) error
	// IsMonthLocked reports whether the user's month can no longer be
	// edited by its owner.
	IsMonthLocked(ctx context.Context, companyID, userID, month string) (bool, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	projectRepo project.Repository
	projects    project.Service
	attendances attendance.Repository
	users       UserDirectory
	resolver    rbac.Resolver
	managers    rbac.ManagerDirectory
	gate        *rbac.Gate
	outbox      kafka.OutboxRepository
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	projectRepo project.Repository,
	projects project.Service,
	attendances attendance.Repository,
	users UserDirectory,
	resolver rbac.Resolver,
	managers rbac.ManagerDirectory,
	gate *rbac.Gate,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("timesheet.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("timesheet.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		projectRepo: projectRepo,
		projects:    projects,
		attendances: attendances,
		users:       users,
		resolver:    resolver,
		managers:    managers,
		gate:        gate,
		outbox:      outbox,
		logger:      l,
	}
}

func (s *service) GetOrCreate(ctx context.Context, actor rbac.Principal, userID, month string) (TimesheetDetailResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if month == "" {
		month = orgclock.MonthOf(time.Now())
	}
	if userID != actor.UserID {
		if err := s.gate.Can(ctx, actor, rbac.ActionTimesheetView, rbac.Target{UserID: userID}); err != nil {
			return TimesheetDetailResponse{}, err
		}
	}

	start, end, err := orgclock.MonthRange(month)
	if err != nil {
		return TimesheetDetailResponse{}, apperror.InvalidField("month")
	}

	ts, err := s.ensureTimesheet(ctx, actor.CompanyID, userID, month)
	if err != nil {
		return TimesheetDetailResponse{}, err
	}

	logs, err := s.repo.FindWorkLogsByUserRange(ctx, actor.CompanyID, userID, start, end)
	if err != nil {
		return TimesheetDetailResponse{}, err
	}
	attRows, err := s.attendances.FindByUserAndRange(ctx, actor.CompanyID, userID, start, end)
	if err != nil {
		return TimesheetDetailResponse{}, err
	}

	detail := TimesheetDetailResponse{
		Timesheet:  mapTimesheet(*ts),
		Entries:    make([]WorkLogResponse, len(logs)),
		Attendance: make([]AttendanceDay, len(attRows)),
	}
	for i, w := range logs {
		detail.Entries[i] = mapWorkLog(w)
		detail.TotalHours += w.Hours
	}
	for i, a := range attRows {
		detail.Attendance[i] = mapAttendanceDay(a)
	}
	return detail, nil
}

func (s *service) LogWork(ctx context.Context, actor rbac.Principal, req LogWorkRequest) (WorkLogResponse, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, orgclock.Location())
	if err != nil {
		return WorkLogResponse{}, apperror.InvalidField("date")
	}
	date = orgclock.DayOf(date)
	month := orgclock.MonthOf(date)

	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return WorkLogResponse{}, err
	}
	if !capability.IsSystemAdmin {
		locked, err := s.IsMonthLocked(ctx, actor.CompanyID, actor.UserID, month)
		if err != nil {
			return WorkLogResponse{}, err
		}
		if locked {
			return WorkLogResponse{}, timesheeterrors.ErrMonthLocked
		}
	}

	task, err := s.projectRepo.FindTaskByID(ctx, actor.CompanyID, req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WorkLogResponse{}, timesheeterrors.ErrTaskNotFound
		}
		return WorkLogResponse{}, err
	}
	if !task.IsActive {
		return WorkLogResponse{}, timesheeterrors.ErrTaskNotFound
	}

	if _, err := s.ensureTimesheet(ctx, actor.CompanyID, actor.UserID, month); err != nil {
		return WorkLogResponse{}, err
	}

	existing, err := s.repo.FindWorkLogByTaskUserDay(ctx, actor.CompanyID, req.TaskID, actor.UserID, date)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return WorkLogResponse{}, err
	}
	if err == nil && existing != nil {
		return WorkLogResponse{}, timesheeterrors.ErrDuplicateEntry
	}

	w := &WorkLog{
		ID:          uuid.New(),
		CompanyID:   uuid.MustParse(actor.CompanyID),
		UserID:      uuid.MustParse(actor.UserID),
		TaskID:      task.ID,
		Date:        date,
		Hours:       req.Hours,
		Description: req.Description,
		Status:      EntryPending,
	}
	if err := s.repo.CreateWorkLog(ctx, w); err != nil {
		if isUniqueViolation(err) {
			return WorkLogResponse{}, timesheeterrors.ErrDuplicateEntry
		}
		return WorkLogResponse{}, err
	}
	w.Task = task
	return mapWorkLog(*w), nil
}

func (s *service) UpdateEntry(ctx context.Context, actor rbac.Principal, entryID string, req UpdateEntryRequest) (WorkLogResponse, error) {
	w, err := s.repo.FindWorkLogByID(ctx, actor.CompanyID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WorkLogResponse{}, timesheeterrors.ErrEntryNotFound
		}
		return WorkLogResponse{}, err
	}

	if err := s.authorizeEntryEdit(ctx, actor, w); err != nil {
		return WorkLogResponse{}, err
	}

	changed := false
	if req.Hours != nil && *req.Hours != w.Hours {
		w.Hours = *req.Hours
		changed = true
	}
	if req.Description != nil && *req.Description != w.Description {
		w.Description = *req.Description
		changed = true
	}

	// Editing a rejected entry puts it back in the approval queue. This is
	// the only automatic state recovery in the workflow.
	if changed && w.Status == EntryRejected {
		w.Status = EntryPending
		w.RejectionReason = nil
	}

	if err := s.repo.UpdateWorkLog(ctx, w); err != nil {
		return WorkLogResponse{}, err
	}
	return mapWorkLog(*w), nil
}

func (s *service) DeleteEntry(ctx context.Context, actor rbac.Principal, entryID string) error {
	w, err := s.repo.FindWorkLogByID(ctx, actor.CompanyID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return timesheeterrors.ErrEntryNotFound
		}
		return err
	}

	if err := s.authorizeEntryEdit(ctx, actor, w); err != nil {
		return err
	}
	return s.repo.DeleteWorkLog(ctx, actor.CompanyID, entryID)
}

func (s *service) Submit(ctx context.Context, actor rbac.Principal, month string) (TimesheetResponse, error) {
	if month == "" {
		month = orgclock.MonthOf(time.Now())
	}
	if _, _, err := orgclock.MonthRange(month); err != nil {
		return TimesheetResponse{}, apperror.InvalidField("month")
	}

	ts, err := s.ensureTimesheet(ctx, actor.CompanyID, actor.UserID, month)
	if err != nil {
		return TimesheetResponse{}, err
	}

	switch ts.Status {
	case StatusSubmitted:
		// Re-submitting an already submitted month is a no-op, not an error.
		return mapTimesheet(*ts), nil
	case StatusApproved, StatusRejected:
		return TimesheetResponse{}, timesheeterrors.ErrAlreadyFinal
	}

	ts.Status = StatusSubmitted
	if ts.SubmittedAt == nil {
		now := time.Now().UTC()
		ts.SubmittedAt = &now
	}
	if err := s.repo.UpdateTimesheet(ctx, ts); err != nil {
		return TimesheetResponse{}, err
	}
	return mapTimesheet(*ts), nil
}

func (s *service) Decide(ctx context.Context, actor rbac.Principal, timesheetID string, req DecisionRequest) (TimesheetResponse, error) {
	ts, err := s.repo.FindTimesheetByID(ctx, actor.CompanyID, timesheetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimesheetResponse{}, timesheeterrors.ErrNotFound
		}
		return TimesheetResponse{}, err
	}

	if err := s.gate.Can(ctx, actor, rbac.ActionTimesheetApprove, rbac.Target{UserID: ts.UserID.String()}); err != nil {
		return TimesheetResponse{}, err
	}
	if ts.Status != StatusSubmitted {
		return TimesheetResponse{}, timesheeterrors.ErrNotSubmitted
	}
	if !req.Approved && (req.Reason == nil || *req.Reason == "") {
		return TimesheetResponse{}, timesheeterrors.ErrReasonRequired
	}

	start, end, err := orgclock.MonthRange(ts.Month)
	if err != nil {
		return TimesheetResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TimesheetResponse{}, err
	}
	defer tx.Rollback()
	qtx := s.repo.WithTx(tx)

	approver := uuid.MustParse(actor.UserID)
	ts.ApproverID = &approver

	switch {
	case req.Approved:
		ts.Status = StatusApproved
		ts.RejectionReason = nil
		if err := qtx.SetStatusByUserRange(ctx, actor.CompanyID, ts.UserID.String(), start, end, EntryApproved, nil); err != nil {
			return TimesheetResponse{}, err
		}
	case len(req.EntryIDs) > 0:
		// Partial rejection: only the named entries are rejected, the rest
		// keep whatever status they had. The envelope reason carries the
		// "Partial Rejection" marker; entries get the plain reason.
		ts.Status = StatusRejected
		marked := "Partial Rejection: " + *req.Reason
		ts.RejectionReason = &marked
		if err := qtx.RejectByIDs(ctx, actor.CompanyID, req.EntryIDs, *req.Reason); err != nil {
			return TimesheetResponse{}, err
		}
	default:
		ts.Status = StatusRejected
		ts.RejectionReason = req.Reason
		if err := qtx.SetStatusByUserRange(ctx, actor.CompanyID, ts.UserID.String(), start, end, EntryRejected, req.Reason); err != nil {
			return TimesheetResponse{}, err
		}
	}

	if err := qtx.UpdateTimesheet(ctx, ts); err != nil {
		return TimesheetResponse{}, err
	}

	event, err := kafka.NewOutboxEvent("timesheet", ts.ID.String(), "timesheet_decided", events.TimesheetDecidedTopic, events.TimesheetDecidedEvent{
		EventType:   "timesheet_decided",
		TimesheetID: ts.ID.String(),
		CompanyID:   ts.CompanyID.String(),
		UserID:      ts.UserID.String(),
		Month:       ts.Month,
		Status:      ts.Status,
		DecidedBy:   actor.UserID,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return TimesheetResponse{}, err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		return TimesheetResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return TimesheetResponse{}, err
	}
	return mapTimesheet(*ts), nil
}

func (s *service) PendingApprovals(ctx context.Context, actor rbac.Principal) ([]TimesheetResponse, error) {
	ids, err := s.users.SubordinateIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindSubmittedByUsers(ctx, actor.CompanyID, ids)
	if err != nil {
		return nil, err
	}
	res := make([]TimesheetResponse, len(rows))
	for i, t := range rows {
		res[i] = mapTimesheet(t)
	}
	return res, nil
}

func (s *service) AutoLogClockOut(ctx context.Context, companyID, userID string, day time.Time, hours float64) error {
	if hours <= 0 {
		return nil
	}
	task, err := s.projects.EnsureGeneralWorkTask(ctx, companyID)
	if err != nil {
		return err
	}
	month := orgclock.MonthOf(day)
	if _, err := s.ensureTimesheet(ctx, companyID, userID, month); err != nil {
		return err
	}

	existing, err := s.repo.FindWorkLogByTaskUserDay(ctx, companyID, task.ID.String(), userID, day)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && existing != nil {
		// A later clock-out on the same day refreshes the pending auto-log;
		// a decided one is left alone.
		if existing.Status != EntryPending {
			return nil
		}
		existing.Hours = hours
		return s.repo.UpdateWorkLog(ctx, existing)
	}

	w := &WorkLog{
		ID:          uuid.New(),
		CompanyID:   uuid.MustParse(companyID),
		UserID:      uuid.MustParse(userID),
		TaskID:      task.ID,
		Date:        day,
		Hours:       hours,
		Description: "Attendance clock-out",
		Status:      EntryPending,
	}
	if err := s.repo.CreateWorkLog(ctx, w); err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

func (s *service) IsMonthLocked(ctx context.Context, companyID, userID, month string) (bool, error) {
	ts, err := s.repo.FindTimesheet(ctx, companyID, userID, month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return ts.Status == StatusSubmitted || ts.Status == StatusApproved, nil
}

// ensureTimesheet lazily creates the month's DRAFT skeleton. A concurrent
// first touch loses the insert race and re-reads.
func (s *service) ensureTimesheet(ctx context.Context, companyID, userID, month string) (*Timesheet, error) {
	ts, err := s.repo.FindTimesheet(ctx, companyID, userID, month)
	if err == nil {
		return ts, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ts = &Timesheet{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		UserID:    uuid.MustParse(userID),
		Month:     month,
		Status:    StatusDraft,
	}
	if createErr := s.repo.CreateTimesheet(ctx, ts); createErr != nil {
		if !isUniqueViolation(createErr) {
			return nil, createErr
		}
		return s.repo.FindTimesheet(ctx, companyID, userID, month)
	}
	return ts, nil
}

// authorizeEntryEdit shares the lock rules between entry update and delete:
// the owner is blocked once the month is submitted or approved, a manager
// or admin is not.
func (s *service) authorizeEntryEdit(ctx context.Context, actor rbac.Principal, w *WorkLog) error {
	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return err
	}
	if capability.IsSystemAdmin {
		return nil
	}

	owner := w.UserID.String()
	if actor.UserID == owner {
		locked, err := s.IsMonthLocked(ctx, actor.CompanyID, owner, orgclock.MonthOf(w.Date))
		if err != nil {
			return err
		}
		if locked {
			return timesheeterrors.ErrMonthLocked
		}
		return nil
	}

	isManager, err := s.managers.IsManagerOf(ctx, actor.UserID, owner)
	if err != nil {
		return err
	}
	if isManager || capability.Has("timesheet.approve") {
		return nil
	}
	return apperror.MissingPermission("timesheet.approve")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapTimesheet(t Timesheet) TimesheetResponse {
	resp := TimesheetResponse{
		ID:              t.ID.String(),
		CompanyID:       t.CompanyID.String(),
		UserID:          t.UserID.String(),
		Month:           t.Month,
		Status:          t.Status,
		RejectionReason: t.RejectionReason,
	}
	if t.SubmittedAt != nil {
		v := t.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &v
	}
	if t.ApproverID != nil {
		v := t.ApproverID.String()
		resp.ApproverID = &v
	}
	return resp
}

func mapWorkLog(w WorkLog) WorkLogResponse {
	resp := WorkLogResponse{
		ID:              w.ID.String(),
		UserID:          w.UserID.String(),
		TaskID:          w.TaskID.String(),
		Date:            w.Date.Format("2006-01-02"),
		Hours:           w.Hours,
		Description:     w.Description,
		Status:          w.Status,
		RejectionReason: w.RejectionReason,
	}
	if w.Task != nil {
		resp.TaskName = w.Task.Name
		if w.Task.Project != nil {
			resp.ProjectName = w.Task.Project.Name
		}
	}
	return resp
}

func mapAttendanceDay(a attendance.Attendance) AttendanceDay {
	day := AttendanceDay{
		Date:   a.Date.Format("2006-01-02"),
		Status: a.Status,
	}
	if a.ClockIn != nil {
		v := a.ClockIn.Format(time.RFC3339)
		day.ClockIn = &v
	}
	if a.ClockOut != nil {
		v := a.ClockOut.Format(time.RFC3339)
		day.ClockOut = &v
	}
	return day
}
