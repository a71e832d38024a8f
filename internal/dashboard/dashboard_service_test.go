package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"hrms/internal/attendance"
	"hrms/internal/project"
	"hrms/internal/rbac"
	"hrms/internal/user"
)

type fakeUsers struct{ roster []user.User }

func (f *fakeUsers) FindAllByCompany(ctx context.Context, companyID string) ([]user.User, error) {
	return f.roster, nil
}

type fakeAttendance struct {
	rows    []attendance.Attendance
	pending int64
}

func (f *fakeAttendance) FindByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]attendance.Attendance, error) {
	return f.rows, nil
}
func (f *fakeAttendance) CountPendingByCompany(ctx context.Context, companyID string) (int64, error) {
	return f.pending, nil
}

type fakeProjects struct{ rows []project.Project }

func (f *fakeProjects) FindAllProjects(ctx context.Context, companyID string) ([]project.Project, error) {
	return f.rows, nil
}

type fakeResolver struct{ capability rbac.Capability }

func (f *fakeResolver) Resolve(ctx context.Context, p rbac.Principal) (rbac.Capability, error) {
	return f.capability, nil
}

type fakeManagers struct{}

func (f *fakeManagers) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	return false, nil
}

func keys(names ...string) rbac.Capability {
	c := rbac.Capability{Keys: map[string]struct{}{}}
	for _, n := range names {
		c.Keys[n] = struct{}{}
	}
	return c
}

func newService(users *fakeUsers, att *fakeAttendance, projects *fakeProjects, capability rbac.Capability) Service {
	gate := rbac.NewGate(&fakeResolver{capability: capability}, &fakeManagers{}, rbac.DefaultGateConfig())
	return NewService(users, att, projects, gate)
}

func activeUser(first, last, code string) user.User {
	return user.User{
		ID:           uuid.New(),
		CompanyID:    uuid.New(),
		FirstName:    first,
		LastName:     last,
		EmployeeCode: code,
		IsActive:     true,
	}
}

func TestOverview_CountsPresenceAndBacklog(t *testing.T) {
	u1 := activeUser("Asha", "Iyer", "EMP001")
	u2 := activeUser("Ravi", "Menon", "EMP002")
	u3 := activeUser("Neha", "Shah", "EMP003")

	now := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	in := now.Add(-2 * time.Hour)
	att := &fakeAttendance{
		rows: []attendance.Attendance{
			{ID: uuid.New(), UserID: u1.ID, Date: now, Status: "PRESENT", ClockIn: &in},
			{ID: uuid.New(), UserID: u2.ID, Date: now, Status: "LATE", ClockIn: &in},
		},
		pending: 4,
	}
	svc := newService(&fakeUsers{roster: []user.User{u1, u2, u3}}, att, &fakeProjects{}, keys("attendance.view"))

	resp, err := svc.Overview(context.Background(), rbac.Principal{UserID: uuid.New().String(), CompanyID: uuid.New().String()}, now)

	assert.NoError(t, err)
	assert.Equal(t, 3, resp.Stats.TotalEmployees)
	assert.Equal(t, 2, resp.Stats.PresentToday)
	assert.Equal(t, 1, resp.Stats.AbsentToday)
	assert.Equal(t, int64(4), resp.Stats.PendingRequests)

	byUser := map[string]DailyStatus{}
	for _, d := range resp.Today {
		byUser[d.UserID] = d
	}
	assert.Equal(t, "LATE", byUser[u2.ID.String()].Status)
	assert.Equal(t, "ABSENT", byUser[u3.ID.String()].Status)
	assert.Nil(t, byUser[u3.ID.String()].ClockIn)
	assert.Equal(t, "Asha Iyer", byUser[u1.ID.String()].Name)
}

func TestOverview_InactiveUsersExcluded(t *testing.T) {
	active := activeUser("Asha", "Iyer", "EMP001")
	left := activeUser("Old", "Hand", "EMP000")
	left.IsActive = false

	svc := newService(&fakeUsers{roster: []user.User{active, left}}, &fakeAttendance{}, &fakeProjects{}, keys("attendance.view"))

	resp, err := svc.Overview(context.Background(), rbac.Principal{UserID: uuid.New().String()}, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Stats.TotalEmployees)
	assert.Len(t, resp.Today, 1)
	assert.Equal(t, active.ID.String(), resp.Today[0].UserID)
}

func TestOverview_DeniedWithoutPermission(t *testing.T) {
	svc := newService(&fakeUsers{}, &fakeAttendance{}, &fakeProjects{}, keys())

	_, err := svc.Overview(context.Background(), rbac.Principal{UserID: uuid.New().String()}, time.Now())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "attendance.view")
}

func TestOverview_ProjectPanelRecentFirstCapped(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows []project.Project
	for i := 0; i < 12; i++ {
		rows = append(rows, project.Project{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("Project %02d", i),
			IsActive:  i%2 == 0,
			UpdatedAt: base.AddDate(0, 0, i),
		})
	}
	svc := newService(&fakeUsers{}, &fakeAttendance{}, &fakeProjects{rows: rows}, keys("attendance.view"))

	resp, err := svc.Overview(context.Background(), rbac.Principal{UserID: uuid.New().String()}, time.Now())

	assert.NoError(t, err)
	assert.Len(t, resp.Projects, 10)
	assert.Equal(t, "Project 11", resp.Projects[0].Name)
	assert.Equal(t, "Inactive", resp.Projects[0].Status)
	assert.Equal(t, "Project 10", resp.Projects[1].Name)
	assert.Equal(t, "Active", resp.Projects[1].Status)
}
