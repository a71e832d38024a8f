package timesheet

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"hrms/internal/attendance"
	"hrms/internal/messaging/kafka"
	"hrms/internal/project"
	"hrms/internal/rbac"
	timesheeterrors "hrms/internal/timesheet/errors"
)

type fakeRepo struct {
	timesheets map[string]*Timesheet // keyed user:month
	logs       map[string]*WorkLog   // keyed by id
	cascades   []string
	rejectedBy []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{timesheets: map[string]*Timesheet{}, logs: map[string]*WorkLog{}}
}

func tsKey(userID, month string) string { return userID + ":" + month }

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeRepo) CreateTimesheet(ctx context.Context, t *Timesheet) error {
	f.timesheets[tsKey(t.UserID.String(), t.Month)] = t
	return nil
}
func (f *fakeRepo) FindTimesheet(ctx context.Context, companyID, userID, month string) (*Timesheet, error) {
	if t, ok := f.timesheets[tsKey(userID, month)]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindTimesheetByID(ctx context.Context, companyID, id string) (*Timesheet, error) {
	for _, t := range f.timesheets {
		if t.ID.String() == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindSubmittedByUsers(ctx context.Context, companyID string, userIDs []string) ([]Timesheet, error) {
	var out []Timesheet
	for _, t := range f.timesheets {
		for _, id := range userIDs {
			if t.UserID.String() == id && t.Status == StatusSubmitted {
				out = append(out, *t)
			}
		}
	}
	return out, nil
}
func (f *fakeRepo) UpdateTimesheet(ctx context.Context, t *Timesheet) error {
	f.timesheets[tsKey(t.UserID.String(), t.Month)] = t
	return nil
}

func (f *fakeRepo) CreateWorkLog(ctx context.Context, w *WorkLog) error {
	f.logs[w.ID.String()] = w
	return nil
}
func (f *fakeRepo) FindWorkLogByID(ctx context.Context, companyID, id string) (*WorkLog, error) {
	if w, ok := f.logs[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindWorkLogByTaskUserDay(ctx context.Context, companyID, taskID, userID string, date time.Time) (*WorkLog, error) {
	for _, w := range f.logs {
		if w.TaskID.String() == taskID && w.UserID.String() == userID && w.Date.Equal(date) {
			return w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindWorkLogsByUserRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]WorkLog, error) {
	var out []WorkLog
	for _, w := range f.logs {
		if w.UserID.String() == userID && !w.Date.Before(start) && w.Date.Before(end) {
			out = append(out, *w)
		}
	}
	return out, nil
}
func (f *fakeRepo) UpdateWorkLog(ctx context.Context, w *WorkLog) error {
	f.logs[w.ID.String()] = w
	return nil
}
func (f *fakeRepo) DeleteWorkLog(ctx context.Context, companyID, id string) error {
	delete(f.logs, id)
	return nil
}
func (f *fakeRepo) SetStatusByUserRange(ctx context.Context, companyID, userID string, start, end time.Time, status string, reason *string) error {
	f.cascades = append(f.cascades, status)
	for _, w := range f.logs {
		if w.UserID.String() == userID && !w.Date.Before(start) && w.Date.Before(end) {
			w.Status = status
			w.RejectionReason = reason
		}
	}
	return nil
}
func (f *fakeRepo) RejectByIDs(ctx context.Context, companyID string, ids []string, reason string) error {
	f.rejectedBy = append(f.rejectedBy, ids...)
	for _, id := range ids {
		if w, ok := f.logs[id]; ok {
			w.Status = EntryRejected
			w.RejectionReason = &reason
		}
	}
	return nil
}

type fakeProjectRepo struct {
	task *project.Task
}

func (f *fakeProjectRepo) WithTx(tx *sql.Tx) project.Repository            { return f }
func (f *fakeProjectRepo) CreateProject(ctx context.Context, p *project.Project) error { return nil }
func (f *fakeProjectRepo) FindProjectByID(ctx context.Context, companyID, id string) (*project.Project, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeProjectRepo) FindProjectByName(ctx context.Context, companyID, name string) (*project.Project, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeProjectRepo) FindAllProjects(ctx context.Context, companyID string) ([]project.Project, error) {
	return nil, nil
}
func (f *fakeProjectRepo) UpdateProject(ctx context.Context, p *project.Project) error { return nil }
func (f *fakeProjectRepo) CreateTask(ctx context.Context, t *project.Task) error       { return nil }
func (f *fakeProjectRepo) FindTaskByID(ctx context.Context, companyID, id string) (*project.Task, error) {
	if f.task != nil && f.task.ID.String() == id {
		return f.task, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeProjectRepo) FindTaskByName(ctx context.Context, companyID, projectID, name string) (*project.Task, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeProjectRepo) FindTasksByProject(ctx context.Context, companyID, projectID string) ([]project.Task, error) {
	return nil, nil
}
func (f *fakeProjectRepo) UpdateTask(ctx context.Context, t *project.Task) error { return nil }

type fakeProjects struct {
	task *project.Task
}

func (f *fakeProjects) CreateProject(ctx context.Context, companyID string, req project.CreateProjectRequest) (project.ProjectResponse, error) {
	return project.ProjectResponse{}, nil
}
func (f *fakeProjects) ListProjects(ctx context.Context, companyID string) ([]project.ProjectResponse, error) {
	return nil, nil
}
func (f *fakeProjects) UpdateProject(ctx context.Context, companyID, id string, req project.UpdateProjectRequest) (project.ProjectResponse, error) {
	return project.ProjectResponse{}, nil
}
func (f *fakeProjects) CreateTask(ctx context.Context, companyID string, req project.CreateTaskRequest) (project.TaskResponse, error) {
	return project.TaskResponse{}, nil
}
func (f *fakeProjects) ListTasks(ctx context.Context, companyID, projectID string) ([]project.TaskResponse, error) {
	return nil, nil
}
func (f *fakeProjects) UpdateTask(ctx context.Context, companyID, id string, req project.UpdateTaskRequest) (project.TaskResponse, error) {
	return project.TaskResponse{}, nil
}
func (f *fakeProjects) EnsureGeneralWorkTask(ctx context.Context, companyID string) (*project.Task, error) {
	return f.task, nil
}

type fakeAttendanceRepo struct{}

func (f *fakeAttendanceRepo) WithTx(tx *sql.Tx) attendance.Repository { return f }
func (f *fakeAttendanceRepo) Create(ctx context.Context, a *attendance.Attendance) error {
	return nil
}
func (f *fakeAttendanceRepo) FindByID(ctx context.Context, companyID, id string) (*attendance.Attendance, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAttendanceRepo) FindByUserAndDate(ctx context.Context, companyID, userID string, date time.Time) (*attendance.Attendance, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAttendanceRepo) FindByUserAndRange(ctx context.Context, companyID, userID string, start, end time.Time) ([]attendance.Attendance, error) {
	return nil, nil
}
func (f *fakeAttendanceRepo) FindByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]attendance.Attendance, error) {
	return nil, nil
}
func (f *fakeAttendanceRepo) FindPendingByUsers(ctx context.Context, companyID string, userIDs []string) ([]attendance.Attendance, error) {
	return nil, nil
}
func (f *fakeAttendanceRepo) CountPendingByCompany(ctx context.Context, companyID string) (int64, error) {
	return 0, nil
}
func (f *fakeAttendanceRepo) Update(ctx context.Context, a *attendance.Attendance) error { return nil }

type fakeUsers struct{ subs []string }

func (f *fakeUsers) SubordinateIDs(ctx context.Context, managerID string) ([]string, error) {
	return f.subs, nil
}

type fakeResolver struct{ capability rbac.Capability }

func (f *fakeResolver) Resolve(ctx context.Context, p rbac.Principal) (rbac.Capability, error) {
	return f.capability, nil
}

type fakeManagers struct{ edges map[string]bool }

func (f *fakeManagers) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	return f.edges[managerID+":"+userID], nil
}

type fakeOutbox struct{ created []kafka.OutboxEvent }

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error              { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

type testEnv struct {
	svc     Service
	repo    *fakeRepo
	outbox  *fakeOutbox
	mock    sqlmock.Sqlmock
	closeFn func()
}

func newTestEnv(t *testing.T, res *fakeResolver, mgrs *fakeManagers, task *project.Task) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := newFakeRepo()
	outbox := &fakeOutbox{}
	gate := rbac.NewGate(res, mgrs, rbac.DefaultGateConfig())
	svc := NewService(
		db,
		repo,
		&fakeProjectRepo{task: task},
		&fakeProjects{task: task},
		&fakeAttendanceRepo{},
		&fakeUsers{},
		res,
		mgrs,
		gate,
		outbox,
	)
	return &testEnv{svc: svc, repo: repo, outbox: outbox, mock: mock, closeFn: func() { db.Close() }}
}

func seedTimesheet(repo *fakeRepo, companyID, userID uuid.UUID, month, status string) *Timesheet {
	ts := &Timesheet{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    userID,
		Month:     month,
		Status:    status,
	}
	repo.timesheets[tsKey(userID.String(), month)] = ts
	return ts
}

func TestSubmit_IdempotentWhenAlreadySubmitted(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	actor := rbac.Principal{UserID: userID.String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, nil)
	defer env.closeFn()

	ts := seedTimesheet(env.repo, companyID, userID, "2026-03", StatusSubmitted)
	submittedAt := time.Now().Add(-time.Hour)
	ts.SubmittedAt = &submittedAt

	resp, err := env.svc.Submit(context.Background(), actor, "2026-03")
	assert.NoError(t, err)
	assert.Equal(t, StatusSubmitted, resp.Status)
	// submitted_at is stamped once, not refreshed by the no-op
	assert.Equal(t, submittedAt, *ts.SubmittedAt)
}

func TestSubmit_FinalStatesRejectResubmit(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	actor := rbac.Principal{UserID: userID.String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, nil)
	defer env.closeFn()

	seedTimesheet(env.repo, companyID, userID, "2026-03", StatusApproved)

	_, err := env.svc.Submit(context.Background(), actor, "2026-03")
	assert.ErrorIs(t, err, timesheeterrors.ErrAlreadyFinal)
}

func TestSubmit_LazyCreatesDraftThenSubmits(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	actor := rbac.Principal{UserID: userID.String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, nil)
	defer env.closeFn()

	resp, err := env.svc.Submit(context.Background(), actor, "2026-04")
	assert.NoError(t, err)
	assert.Equal(t, StatusSubmitted, resp.Status)
	assert.NotNil(t, resp.SubmittedAt)
}

func TestDecide_FullApproveCascades(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	approver := rbac.Principal{UserID: uuid.New().String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{capability: rbac.Capability{Keys: map[string]struct{}{"timesheet.approve": {}}}}, &fakeManagers{}, nil)
	defer env.closeFn()

	ts := seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusSubmitted)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	w := &WorkLog{ID: uuid.New(), CompanyID: companyID, UserID: ownerID, TaskID: uuid.New(), Date: day, Hours: 8, Status: EntryPending}
	env.repo.logs[w.ID.String()] = w

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	resp, err := env.svc.Decide(context.Background(), approver, ts.ID.String(), DecisionRequest{Approved: true})
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, resp.Status)
	assert.Equal(t, EntryApproved, w.Status)
	assert.Len(t, env.outbox.created, 1)
	assert.Equal(t, "timesheet_decided", env.outbox.created[0].EventType)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDecide_PartialRejectionLeavesOthersUntouched(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	approver := rbac.Principal{UserID: uuid.New().String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{capability: rbac.Capability{Keys: map[string]struct{}{"timesheet.approve": {}}}}, &fakeManagers{}, nil)
	defer env.closeFn()

	ts := seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusSubmitted)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	bad := &WorkLog{ID: uuid.New(), CompanyID: companyID, UserID: ownerID, TaskID: uuid.New(), Date: day, Hours: 12, Status: EntryPending}
	good := &WorkLog{ID: uuid.New(), CompanyID: companyID, UserID: ownerID, TaskID: uuid.New(), Date: day.AddDate(0, 0, 1), Hours: 8, Status: EntryPending}
	env.repo.logs[bad.ID.String()] = bad
	env.repo.logs[good.ID.String()] = good

	reason := "hours look inflated"
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	resp, err := env.svc.Decide(context.Background(), approver, ts.ID.String(), DecisionRequest{
		Approved: false,
		Reason:   &reason,
		EntryIDs: []string{bad.ID.String()},
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusRejected, resp.Status)
	assert.Equal(t, EntryRejected, bad.Status)
	// The marker lives on the envelope; entries carry the plain reason.
	assert.Equal(t, "Partial Rejection: "+reason, *resp.RejectionReason)
	assert.Equal(t, reason, *bad.RejectionReason)
	assert.Equal(t, EntryPending, good.Status)
	assert.Empty(t, env.repo.cascades)
}

func TestDecide_RejectWithoutReasonFails(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	approver := rbac.Principal{UserID: uuid.New().String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{capability: rbac.Capability{Keys: map[string]struct{}{"timesheet.approve": {}}}}, &fakeManagers{}, nil)
	defer env.closeFn()

	ts := seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusSubmitted)

	_, err := env.svc.Decide(context.Background(), approver, ts.ID.String(), DecisionRequest{Approved: false})
	assert.ErrorIs(t, err, timesheeterrors.ErrReasonRequired)
}

func TestDecide_RequiresSubmittedState(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	approver := rbac.Principal{UserID: uuid.New().String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{capability: rbac.Capability{Keys: map[string]struct{}{"timesheet.approve": {}}}}, &fakeManagers{}, nil)
	defer env.closeFn()

	ts := seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusDraft)

	_, err := env.svc.Decide(context.Background(), approver, ts.ID.String(), DecisionRequest{Approved: true})
	assert.ErrorIs(t, err, timesheeterrors.ErrNotSubmitted)
}

func TestUpdateEntry_RejectedEntryReopensOnEdit(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	actor := rbac.Principal{UserID: ownerID.String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, nil)
	defer env.closeFn()

	reason := "wrong task"
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	w := &WorkLog{
		ID:              uuid.New(),
		CompanyID:       companyID,
		UserID:          ownerID,
		TaskID:          uuid.New(),
		Date:            day,
		Hours:           8,
		Status:          EntryRejected,
		RejectionReason: &reason,
	}
	env.repo.logs[w.ID.String()] = w

	hours := 6.5
	resp, err := env.svc.UpdateEntry(context.Background(), actor, w.ID.String(), UpdateEntryRequest{Hours: &hours})
	assert.NoError(t, err)
	assert.Equal(t, EntryPending, resp.Status)
	assert.Nil(t, resp.RejectionReason)
	assert.Equal(t, 6.5, resp.Hours)
}

func TestUpdateEntry_OwnerBlockedByLock(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	actor := rbac.Principal{UserID: ownerID.String(), CompanyID: companyID.String()}

	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, nil)
	defer env.closeFn()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusSubmitted)
	w := &WorkLog{ID: uuid.New(), CompanyID: companyID, UserID: ownerID, TaskID: uuid.New(), Date: day, Hours: 8, Status: EntryPending}
	env.repo.logs[w.ID.String()] = w

	hours := 4.0
	_, err := env.svc.UpdateEntry(context.Background(), actor, w.ID.String(), UpdateEntryRequest{Hours: &hours})
	assert.ErrorIs(t, err, timesheeterrors.ErrMonthLocked)
}

func TestUpdateEntry_ManagerEditsThroughLock(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	managerID := uuid.New().String()
	actor := rbac.Principal{UserID: managerID, CompanyID: companyID.String()}

	mgrs := &fakeManagers{edges: map[string]bool{managerID + ":" + ownerID.String(): true}}
	env := newTestEnv(t, &fakeResolver{}, mgrs, nil)
	defer env.closeFn()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusSubmitted)
	w := &WorkLog{ID: uuid.New(), CompanyID: companyID, UserID: ownerID, TaskID: uuid.New(), Date: day, Hours: 8, Status: EntryPending}
	env.repo.logs[w.ID.String()] = w

	hours := 4.0
	resp, err := env.svc.UpdateEntry(context.Background(), actor, w.ID.String(), UpdateEntryRequest{Hours: &hours})
	assert.NoError(t, err)
	assert.Equal(t, 4.0, resp.Hours)
}

func TestLogWork_DuplicateTaskUserDay(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()
	actor := rbac.Principal{UserID: ownerID.String(), CompanyID: companyID.String()}

	task := &project.Task{ID: uuid.New(), CompanyID: companyID, Name: "Build", IsActive: true}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, task)
	defer env.closeFn()

	req := LogWorkRequest{TaskID: task.ID.String(), Date: "2026-03-10", Hours: 8}
	_, err := env.svc.LogWork(context.Background(), actor, req)
	assert.NoError(t, err)

	_, err = env.svc.LogWork(context.Background(), actor, req)
	assert.ErrorIs(t, err, timesheeterrors.ErrDuplicateEntry)
}

func TestAutoLogClockOut_RefreshesPendingEntry(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()

	task := &project.Task{ID: uuid.New(), CompanyID: companyID, Name: project.GeneralWorkName, IsActive: true}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, task)
	defer env.closeFn()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	err := env.svc.AutoLogClockOut(context.Background(), companyID.String(), ownerID.String(), day, 7.5)
	assert.NoError(t, err)
	assert.Len(t, env.repo.logs, 1)

	err = env.svc.AutoLogClockOut(context.Background(), companyID.String(), ownerID.String(), day, 9.0)
	assert.NoError(t, err)
	assert.Len(t, env.repo.logs, 1)
	for _, w := range env.repo.logs {
		assert.Equal(t, 9.0, w.Hours)
	}
}

func TestIsMonthLocked(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()

	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{}, nil)
	defer env.closeFn()

	locked, err := env.svc.IsMonthLocked(context.Background(), companyID.String(), ownerID.String(), "2026-03")
	assert.NoError(t, err)
	assert.False(t, locked)

	seedTimesheet(env.repo, companyID, ownerID, "2026-03", StatusSubmitted)
	locked, err = env.svc.IsMonthLocked(context.Background(), companyID.String(), ownerID.String(), "2026-03")
	assert.NoError(t, err)
	assert.True(t, locked)
}
