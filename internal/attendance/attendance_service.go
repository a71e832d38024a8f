package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendanceerrors "hrms/internal/attendance/errors"
	"hrms/internal/rbac"
	"hrms/internal/shared/apperror"
	"hrms/internal/shared/orgclock"
)

// lateThreshold is minutes past 09:00 org time before a clock-in is LATE.
const lateThreshold = 15 * time.Minute

// UserDirectory provides the user facts attendance validates against.
type UserDirectory interface {
	JoiningDate(ctx context.Context, companyID, id string) (*time.Time, error)
	SubordinateIDs(ctx context.Context, managerID string) ([]string, error)
}

// TimesheetLocks reports whether a user's month is frozen for owner edits.
type TimesheetLocks interface {
	IsMonthLocked(ctx context.Context, companyID, userID, month string) (bool, error)
}

// WorkLogger receives the auto work log created on clock-out.
type WorkLogger interface {
	AutoLogClockOut(ctx context.Context, companyID, userID string, day time.Time, hours float64) error
}

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, actor rbac.Principal, ip string, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, actor rbac.Principal, req ClockOutRequest) (AttendanceResponse, error)
	Today(ctx context.Context, actor rbac.Principal) (AttendanceResponse, error)
	CreateManual(ctx context.Context, actor rbac.Principal, req ManualEntryRequest) (AttendanceResponse, error)
	Regularize(ctx context.Context, actor rbac.Principal, id string, req RegularizeRequest) (AttendanceResponse, error)
	Decide(ctx context.Context, actor rbac.Principal, id string, req DecisionRequest) (AttendanceResponse, error)
	ListForUser(ctx context.Context, actor rbac.Principal, userID, month string) ([]AttendanceResponse, error)
	ListForCompany(ctx context.Context, actor rbac.Principal, month string) ([]AttendanceResponse, error)
	PendingApprovals(ctx context.Context, actor rbac.Principal) ([]AttendanceResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	users    UserDirectory
	resolver rbac.Resolver
	managers rbac.ManagerDirectory
	gate     *rbac.Gate
	locks    TimesheetLocks
	worklog  WorkLogger
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users UserDirectory,
	resolver rbac.Resolver,
	managers rbac.ManagerDirectory,
	gate *rbac.Gate,
	locks TimesheetLocks,
	worklog WorkLogger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		users:    users,
		resolver: resolver,
		managers: managers,
		gate:     gate,
		locks:    locks,
		worklog:  worklog,
		logger:   l,
	}
}

func (s *service) ClockIn(ctx context.Context, actor rbac.Principal, ip string, req ClockInRequest) (AttendanceResponse, error) {
	now := time.Now().In(orgclock.Location())
	today := orgclock.DayOf(now)

	if err := s.checkJoiningFloor(ctx, actor.CompanyID, actor.UserID, today); err != nil {
		return AttendanceResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()
	qtx := s.repo.WithTx(tx)

	existing, err := qtx.FindByUserAndDate(ctx, actor.CompanyID, actor.UserID, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}
	if err == nil && existing != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	status := statusPresent
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, orgclock.Location()).Add(lateThreshold)
	if now.After(cutoff) {
		status = statusLate
	}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(actor.CompanyID),
		UserID:         uuid.MustParse(actor.UserID),
		Date:           today,
		ClockIn:        &now,
		Status:         status,
		ApprovalStatus: ApprovalApproved,
		Notes:          req.Notes,
	}
	if ip != "" {
		row.IPAddress = &ip
	}

	if err := qtx.Create(ctx, row); err != nil {
		// Two racing clock-ins both pass the pre-check; the unique index
		// settles it.
		if isUniqueViolation(err) {
			return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
		}
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) ClockOut(ctx context.Context, actor rbac.Principal, req ClockOutRequest) (AttendanceResponse, error) {
	now := time.Now().In(orgclock.Location())
	today := orgclock.DayOf(now)

	row, err := s.repo.FindByUserAndDate(ctx, actor.CompanyID, actor.UserID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNotClockedIn
		}
		return AttendanceResponse{}, err
	}
	if row.ClockOut != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedOut
	}

	row.ClockOut = &now
	if req.Notes != nil {
		row.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}

	if s.worklog != nil && row.ClockIn != nil {
		hours := now.Sub(*row.ClockIn).Hours()
		if err := s.worklog.AutoLogClockOut(ctx, actor.CompanyID, actor.UserID, today, hours); err != nil {
			// The punch itself is already saved; a failed auto-log is not
			// worth failing the request over.
			s.logger.Warn("auto work log failed",
				zap.String("user_id", actor.UserID),
				zap.Error(err),
			)
		}
	}
	return mapToResponse(*row), nil
}

func (s *service) Today(ctx context.Context, actor rbac.Principal) (AttendanceResponse, error) {
	today := orgclock.DayOf(time.Now().In(orgclock.Location()))
	row, err := s.repo.FindByUserAndDate(ctx, actor.CompanyID, actor.UserID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNotClockedIn
		}
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) CreateManual(ctx context.Context, actor rbac.Principal, req ManualEntryRequest) (AttendanceResponse, error) {
	targetID := req.UserID
	if targetID == "" {
		targetID = actor.UserID
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, orgclock.Location())
	if err != nil {
		return AttendanceResponse{}, apperror.InvalidField("date")
	}
	date = orgclock.DayOf(date)

	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return AttendanceResponse{}, err
	}
	if err := s.authorizeEdit(ctx, actor, capability, targetID, date); err != nil {
		return AttendanceResponse{}, err
	}
	if !capability.IsSystemAdmin {
		if err := s.checkJoiningFloor(ctx, actor.CompanyID, targetID, date); err != nil {
			return AttendanceResponse{}, err
		}
	}

	clockIn, err := combineDayTime(date, req.ClockIn)
	if err != nil {
		return AttendanceResponse{}, err
	}
	var clockOut *time.Time
	if req.ClockOut != "" {
		out, err := combineDayTime(date, req.ClockOut)
		if err != nil {
			return AttendanceResponse{}, err
		}
		if !out.After(*clockIn) {
			return AttendanceResponse{}, attendanceerrors.ErrClockOutBeforeIn
		}
		clockOut = out
	}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(actor.CompanyID),
		UserID:         uuid.MustParse(targetID),
		Date:           date,
		ClockIn:        clockIn,
		ClockOut:       clockOut,
		Status:         statusPresent,
		IsManualEntry:  true,
		ApprovalStatus: ApprovalPending,
		Notes:          req.Notes,
	}
	// A manager or admin entering time for someone else does not queue
	// behind their own approval.
	if actor.UserID != targetID || capability.IsSystemAdmin {
		row.ApprovalStatus = ApprovalApproved
		approver := uuid.MustParse(actor.UserID)
		row.ApproverID = &approver
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if isUniqueViolation(err) {
			return AttendanceResponse{}, attendanceerrors.ErrDuplicateDay
		}
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) Regularize(ctx context.Context, actor rbac.Principal, id string, req RegularizeRequest) (AttendanceResponse, error) {
	row, err := s.repo.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNotFound
		}
		return AttendanceResponse{}, err
	}

	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return AttendanceResponse{}, err
	}
	if err := s.authorizeEdit(ctx, actor, capability, row.UserID.String(), row.Date); err != nil {
		return AttendanceResponse{}, err
	}

	if req.ClockIn != nil {
		in, err := combineDayTime(row.Date, *req.ClockIn)
		if err != nil {
			return AttendanceResponse{}, err
		}
		row.ClockIn = in
	}
	if req.ClockOut != nil {
		out, err := combineDayTime(row.Date, *req.ClockOut)
		if err != nil {
			return AttendanceResponse{}, err
		}
		row.ClockOut = out
	}
	if row.ClockIn != nil && row.ClockOut != nil && !row.ClockOut.After(*row.ClockIn) {
		return AttendanceResponse{}, attendanceerrors.ErrClockOutBeforeIn
	}
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	// An owner's correction goes back through approval; a manager or admin
	// correction is final immediately.
	if actor.UserID == row.UserID.String() && !capability.IsSystemAdmin {
		row.ApprovalStatus = ApprovalPending
		row.ApproverID = nil
		row.RejectionReason = nil
	} else {
		approver := uuid.MustParse(actor.UserID)
		row.ApprovalStatus = ApprovalApproved
		row.ApproverID = &approver
		row.RejectionReason = nil
	}
	row.IsManualEntry = true

	if err := s.repo.Update(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) Decide(ctx context.Context, actor rbac.Principal, id string, req DecisionRequest) (AttendanceResponse, error) {
	row, err := s.repo.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNotFound
		}
		return AttendanceResponse{}, err
	}

	if err := s.gate.Can(ctx, actor, rbac.ActionAttendanceApprove, rbac.Target{UserID: row.UserID.String()}); err != nil {
		return AttendanceResponse{}, err
	}
	if row.ApprovalStatus != ApprovalPending {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyDecided
	}

	approver := uuid.MustParse(actor.UserID)
	row.ApproverID = &approver
	if req.Approved {
		row.ApprovalStatus = ApprovalApproved
		row.RejectionReason = nil
	} else {
		if req.Reason == nil || *req.Reason == "" {
			return AttendanceResponse{}, attendanceerrors.ErrReasonRequired
		}
		row.ApprovalStatus = ApprovalRejected
		row.RejectionReason = req.Reason
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) ListForUser(ctx context.Context, actor rbac.Principal, userID, month string) ([]AttendanceResponse, error) {
	if err := s.gate.Can(ctx, actor, rbac.ActionAttendanceView, rbac.Target{UserID: userID}); err != nil {
		return nil, err
	}
	start, end, err := orgclock.MonthRange(month)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindByUserAndRange(ctx, actor.CompanyID, userID, start, end)
	if err != nil {
		return nil, err
	}
	return mapSlice(rows), nil
}

func (s *service) ListForCompany(ctx context.Context, actor rbac.Principal, month string) ([]AttendanceResponse, error) {
	if err := s.gate.Can(ctx, actor, rbac.ActionAttendanceView, rbac.Target{}); err != nil {
		return nil, err
	}
	start, end, err := orgclock.MonthRange(month)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindByCompanyAndRange(ctx, actor.CompanyID, start, end)
	if err != nil {
		return nil, err
	}
	return mapSlice(rows), nil
}

// PendingApprovals lists the PENDING manual entries of the caller's
// subordinates.
func (s *service) PendingApprovals(ctx context.Context, actor rbac.Principal) ([]AttendanceResponse, error) {
	ids, err := s.users.SubordinateIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindPendingByUsers(ctx, actor.CompanyID, ids)
	if err != nil {
		return nil, err
	}
	return mapSlice(rows), nil
}

// authorizeEdit applies the edit rules shared by manual entry and
// regularization: an admin always passes and ignores locks, the owner needs
// attendance.update_self and an unlocked month, anyone else needs the
// manager edge or attendance.approve.
func (s *service) authorizeEdit(ctx context.Context, actor rbac.Principal, capability rbac.Capability, targetID string, date time.Time) error {
	if capability.IsSystemAdmin {
		return nil
	}

	if actor.UserID == targetID {
		if !capability.Has("attendance.update_self") {
			return apperror.MissingPermission("attendance.update_self")
		}
		locked, err := s.locks.IsMonthLocked(ctx, actor.CompanyID, targetID, orgclock.MonthOf(date))
		if err != nil {
			return err
		}
		if locked {
			return attendanceerrors.ErrMonthLocked
		}
		return nil
	}

	isManager, err := s.managers.IsManagerOf(ctx, actor.UserID, targetID)
	if err != nil {
		return err
	}
	if isManager || capability.Has("attendance.approve") {
		return nil
	}
	return apperror.MissingPermission("attendance.approve")
}

func (s *service) checkJoiningFloor(ctx context.Context, companyID, userID string, date time.Time) error {
	joined, err := s.users.JoiningDate(ctx, companyID, userID)
	if err != nil {
		return err
	}
	if joined != nil && date.Before(orgclock.DayOf(*joined)) {
		return attendanceerrors.ErrBeforeJoining
	}
	return nil
}

func combineDayTime(day time.Time, clock string) (*time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return nil, apperror.InvalidField("clock time")
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, orgclock.Location())
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapSlice(rows []Attendance) []AttendanceResponse {
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:              a.ID.String(),
		CompanyID:       a.CompanyID.String(),
		UserID:          a.UserID.String(),
		Date:            a.Date.Format("2006-01-02"),
		Status:          a.Status,
		IsManualEntry:   a.IsManualEntry,
		IPAddress:       a.IPAddress,
		Notes:           a.Notes,
		ApprovalStatus:  a.ApprovalStatus,
		RejectionReason: a.RejectionReason,
	}
	if a.ClockIn != nil {
		v := a.ClockIn.Format(time.RFC3339)
		resp.ClockIn = &v
	}
	if a.ClockOut != nil {
		v := a.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &v
	}
	if a.ApproverID != nil {
		v := a.ApproverID.String()
		resp.ApproverID = &v
	}
	return resp
}
