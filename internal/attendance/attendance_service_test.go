package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	attendanceerrors "hrms/internal/attendance/errors"
	"hrms/internal/rbac"
)

type fakeRepo struct {
	createFn             func(ctx context.Context, a *Attendance) error
	findByIDFn           func(ctx context.Context, companyID, id string) (*Attendance, error)
	findByUserAndDateFn  func(ctx context.Context, companyID, userID string, date time.Time) (*Attendance, error)
	findByUserAndRangeFn func(ctx context.Context, companyID, userID string, start, end time.Time) ([]Attendance, error)
	updateFn             func(ctx context.Context, a *Attendance) error
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository                    { return f }
func (f *fakeRepo) Create(ctx context.Context, a *Attendance) error { return f.createFn(ctx, a) }
func (f *fakeRepo) FindByID(ctx context.Context, companyID, id string) (*Attendance, error) {
	return f.findByIDFn(ctx, companyID, id)
}
func (f *fakeRepo) FindByUserAndDate(ctx context.Context, companyID, userID string, date time.Time) (*Attendance, error) {
	return f.findByUserAndDateFn(ctx, companyID, userID, date)
}
func (f *fakeRepo) FindByUserAndRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]Attendance, error) {
	return f.findByUserAndRangeFn(ctx, companyID, userID, start, end)
}
func (f *fakeRepo) FindByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]Attendance, error) {
	return nil, nil
}
func (f *fakeRepo) FindPendingByUsers(ctx context.Context, companyID string, userIDs []string) ([]Attendance, error) {
	return nil, nil
}
func (f *fakeRepo) CountPendingByCompany(ctx context.Context, companyID string) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) Update(ctx context.Context, a *Attendance) error { return f.updateFn(ctx, a) }

type fakeUsers struct {
	joiningDate *time.Time
	subs        []string
}

func (f *fakeUsers) JoiningDate(ctx context.Context, companyID, id string) (*time.Time, error) {
	return f.joiningDate, nil
}
func (f *fakeUsers) SubordinateIDs(ctx context.Context, managerID string) ([]string, error) {
	return f.subs, nil
}

type fakeResolver struct {
	capability rbac.Capability
}

func (f *fakeResolver) Resolve(ctx context.Context, p rbac.Principal) (rbac.Capability, error) {
	return f.capability, nil
}

type fakeManagers struct {
	edges map[string]bool
}

func (f *fakeManagers) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	return f.edges[managerID+":"+userID], nil
}

type fakeLocks struct {
	locked bool
}

func (f *fakeLocks) IsMonthLocked(ctx context.Context, companyID, userID, month string) (bool, error) {
	return f.locked, nil
}

type fakeWorkLogger struct {
	calls int
	hours float64
}

func (f *fakeWorkLogger) AutoLogClockOut(ctx context.Context, companyID, userID string, day time.Time, hours float64) error {
	f.calls++
	f.hours = hours
	return nil
}

func keys(ks ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ks))
	for _, k := range ks {
		m[k] = struct{}{}
	}
	return m
}

func newTestService(t *testing.T, repo *fakeRepo, users *fakeUsers, res *fakeResolver, mgrs *fakeManagers, locks *fakeLocks, wl WorkLogger) (Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gate := rbac.NewGate(res, mgrs, rbac.DefaultGateConfig())
	svc := NewService(db, repo, users, res, mgrs, gate, locks, wl)
	return svc, mock, func() { db.Close() }
}

func TestClockInAndClockOut(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.New().String(), CompanyID: uuid.New().String()}
	ctx := context.Background()

	var saved Attendance
	repo := &fakeRepo{}
	repo.createFn = func(ctx context.Context, a *Attendance) error { saved = *a; return nil }
	repo.updateFn = func(ctx context.Context, a *Attendance) error { saved = *a; return nil }
	repo.findByUserAndDateFn = func(ctx context.Context, companyID, userID string, date time.Time) (*Attendance, error) {
		if saved.ID == uuid.Nil {
			return nil, gorm.ErrRecordNotFound
		}
		return &saved, nil
	}

	wl := &fakeWorkLogger{}
	svc, mock, closeFn := newTestService(t, repo, &fakeUsers{}, &fakeResolver{}, &fakeManagers{}, &fakeLocks{}, wl)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectCommit()
	inResp, err := svc.ClockIn(ctx, actor, "10.0.0.1", ClockInRequest{})
	assert.NoError(t, err)
	assert.NotEmpty(t, inResp.ID)
	assert.NotNil(t, inResp.ClockIn)
	assert.Equal(t, ApprovalApproved, inResp.ApprovalStatus)

	outResp, err := svc.ClockOut(ctx, actor, ClockOutRequest{})
	assert.NoError(t, err)
	assert.NotNil(t, outResp.ClockOut)
	assert.Equal(t, 1, wl.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClockIn_Duplicate(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.New().String(), CompanyID: uuid.New().String()}

	repo := &fakeRepo{}
	repo.findByUserAndDateFn = func(ctx context.Context, companyID, userID string, date time.Time) (*Attendance, error) {
		return &Attendance{ID: uuid.New()}, nil
	}

	svc, mock, closeFn := newTestService(t, repo, &fakeUsers{}, &fakeResolver{}, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.ClockIn(context.Background(), actor, "", ClockInRequest{})
	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
}

func TestClockIn_BeforeJoiningDate(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.New().String(), CompanyID: uuid.New().String()}
	joined := time.Now().AddDate(0, 0, 7)

	svc, _, closeFn := newTestService(t, &fakeRepo{}, &fakeUsers{joiningDate: &joined}, &fakeResolver{}, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	_, err := svc.ClockIn(context.Background(), actor, "", ClockInRequest{})
	assert.ErrorIs(t, err, attendanceerrors.ErrBeforeJoining)
}

func TestRegularize_OwnerNeedsSelfPermission(t *testing.T) {
	actorID := uuid.New().String()
	companyID := uuid.New().String()
	actor := rbac.Principal{UserID: actorID, CompanyID: companyID}

	row := &Attendance{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		UserID:    uuid.MustParse(actorID),
		Date:      time.Now().Truncate(24 * time.Hour),
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, companyID, id string) (*Attendance, error) { return row, nil },
		updateFn:   func(ctx context.Context, a *Attendance) error { return nil },
	}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, &fakeResolver{}, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	in := "09:30"
	_, err := svc.Regularize(context.Background(), actor, row.ID.String(), RegularizeRequest{ClockIn: &in})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "attendance.update_self")
}

func TestRegularize_OwnerBlockedByLockedMonth(t *testing.T) {
	actorID := uuid.New().String()
	companyID := uuid.New().String()
	actor := rbac.Principal{UserID: actorID, CompanyID: companyID}

	row := &Attendance{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		UserID:    uuid.MustParse(actorID),
		Date:      time.Now().Truncate(24 * time.Hour),
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, companyID, id string) (*Attendance, error) { return row, nil },
	}
	res := &fakeResolver{capability: rbac.Capability{Keys: keys("attendance.update_self")}}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, res, &fakeManagers{}, &fakeLocks{locked: true}, nil)
	defer closeFn()

	in := "09:30"
	_, err := svc.Regularize(context.Background(), actor, row.ID.String(), RegularizeRequest{ClockIn: &in})
	assert.ErrorIs(t, err, attendanceerrors.ErrMonthLocked)
}

func TestRegularize_ManagerIgnoresLock(t *testing.T) {
	managerID := uuid.New().String()
	ownerID := uuid.New().String()
	companyID := uuid.New().String()
	actor := rbac.Principal{UserID: managerID, CompanyID: companyID}

	var saved Attendance
	row := &Attendance{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		UserID:    uuid.MustParse(ownerID),
		Date:      time.Now().Truncate(24 * time.Hour),
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, companyID, id string) (*Attendance, error) { return row, nil },
		updateFn:   func(ctx context.Context, a *Attendance) error { saved = *a; return nil },
	}
	mgrs := &fakeManagers{edges: map[string]bool{managerID + ":" + ownerID: true}}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, &fakeResolver{}, mgrs, &fakeLocks{locked: true}, nil)
	defer closeFn()

	in := "09:30"
	resp, err := svc.Regularize(context.Background(), actor, row.ID.String(), RegularizeRequest{ClockIn: &in})
	assert.NoError(t, err)
	assert.Equal(t, ApprovalApproved, resp.ApprovalStatus)
	assert.Equal(t, managerID, saved.ApproverID.String())
}

func TestDecide_TerminalOnceDecided(t *testing.T) {
	approverID := uuid.New().String()
	ownerID := uuid.New().String()
	companyID := uuid.New().String()
	actor := rbac.Principal{UserID: approverID, CompanyID: companyID}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(companyID),
		UserID:         uuid.MustParse(ownerID),
		ApprovalStatus: ApprovalApproved,
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, companyID, id string) (*Attendance, error) { return row, nil },
	}
	res := &fakeResolver{capability: rbac.Capability{Keys: keys("attendance.approve")}}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, res, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	_, err := svc.Decide(context.Background(), actor, row.ID.String(), DecisionRequest{Approved: true})
	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyDecided)
}

func TestDecide_RejectRequiresReason(t *testing.T) {
	approverID := uuid.New().String()
	ownerID := uuid.New().String()
	companyID := uuid.New().String()
	actor := rbac.Principal{UserID: approverID, CompanyID: companyID}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(companyID),
		UserID:         uuid.MustParse(ownerID),
		ApprovalStatus: ApprovalPending,
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, companyID, id string) (*Attendance, error) { return row, nil },
		updateFn:   func(ctx context.Context, a *Attendance) error { return nil },
	}
	res := &fakeResolver{capability: rbac.Capability{Keys: keys("attendance.approve")}}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, res, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	_, err := svc.Decide(context.Background(), actor, row.ID.String(), DecisionRequest{Approved: false})
	assert.ErrorIs(t, err, attendanceerrors.ErrReasonRequired)

	reason := "no supporting punch"
	resp, err := svc.Decide(context.Background(), actor, row.ID.String(), DecisionRequest{Approved: false, Reason: &reason})
	assert.NoError(t, err)
	assert.Equal(t, ApprovalRejected, resp.ApprovalStatus)
	assert.Equal(t, reason, *resp.RejectionReason)
}

func TestDecide_DeniedWithoutPermissionOrEdge(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.New().String(), CompanyID: uuid.New().String()}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(actor.CompanyID),
		UserID:         uuid.MustParse(uuid.New().String()),
		ApprovalStatus: ApprovalPending,
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, companyID, id string) (*Attendance, error) { return row, nil },
	}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, &fakeResolver{}, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	_, err := svc.Decide(context.Background(), actor, row.ID.String(), DecisionRequest{Approved: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "attendance.approve")
}

func TestCreateManual_CreateErrorPassesThrough(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.New().String(), CompanyID: uuid.New().String()}

	repo := &fakeRepo{
		createFn: func(ctx context.Context, a *Attendance) error {
			return errors.New("duplicate key value violates unique constraint")
		},
	}
	res := &fakeResolver{capability: rbac.Capability{IsSystemAdmin: true}}

	svc, _, closeFn := newTestService(t, repo, &fakeUsers{}, res, &fakeManagers{}, &fakeLocks{}, nil)
	defer closeFn()

	_, err := svc.CreateManual(context.Background(), actor, ManualEntryRequest{
		Date:    "2026-03-02",
		ClockIn: "09:00",
	})
	// a plain error, not a pg unique violation, passes through untouched
	assert.Error(t, err)
	assert.NotErrorIs(t, err, attendanceerrors.ErrDuplicateDay)
}
