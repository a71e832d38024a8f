package dashboard

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"hrms/internal/attendance"
	"hrms/internal/project"
	"hrms/internal/rbac"
	"hrms/internal/shared/orgclock"
	"hrms/internal/user"
)

// UserDirectory lists the company roster the overview is computed over.
type UserDirectory interface {
	FindAllByCompany(ctx context.Context, companyID string) ([]user.User, error)
}

// AttendanceLog reads today's records and the pending-approval backlog.
type AttendanceLog interface {
	FindByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]attendance.Attendance, error)
	CountPendingByCompany(ctx context.Context, companyID string) (int64, error)
}

// ProjectRegistry feeds the projects panel.
type ProjectRegistry interface {
	FindAllProjects(ctx context.Context, companyID string) ([]project.Project, error)
}

const projectPanelSize = 10

//go:generate mockgen -source=dashboard_service.go -destination=mock/dashboard_service_mock.go -package=mock
type Service interface {
	Overview(ctx context.Context, actor rbac.Principal, now time.Time) (OverviewResponse, error)
}

type service struct {
	users       UserDirectory
	attendances AttendanceLog
	projects    ProjectRegistry
	gate        *rbac.Gate
	logger      *zap.Logger
}

func NewService(
	users UserDirectory,
	attendances AttendanceLog,
	projects ProjectRegistry,
	gate *rbac.Gate,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("dashboard.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dashboard.service")
	}
	return &service{users: users, attendances: attendances, projects: projects, gate: gate, logger: l}
}

// Overview assembles the headcount, today's presence and the pending-approval
// backlog for the caller's company. A user without a record for the org-local
// day counts as ABSENT.
func (s *service) Overview(ctx context.Context, actor rbac.Principal, now time.Time) (OverviewResponse, error) {
	if err := s.gate.Can(ctx, actor, rbac.ActionAttendanceView, rbac.Target{}); err != nil {
		return OverviewResponse{}, err
	}

	roster, err := s.users.FindAllByCompany(ctx, actor.CompanyID)
	if err != nil {
		return OverviewResponse{}, err
	}

	today := orgclock.DayOf(now)
	rows, err := s.attendances.FindByCompanyAndRange(ctx, actor.CompanyID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return OverviewResponse{}, err
	}
	byUser := make(map[string]*attendance.Attendance, len(rows))
	for i := range rows {
		byUser[rows[i].UserID.String()] = &rows[i]
	}

	pending, err := s.attendances.CountPendingByCompany(ctx, actor.CompanyID)
	if err != nil {
		return OverviewResponse{}, err
	}

	resp := OverviewResponse{Today: []DailyStatus{}}
	for _, u := range roster {
		if !u.IsActive {
			continue
		}
		resp.Stats.TotalEmployees++

		entry := DailyStatus{
			UserID:       u.ID.String(),
			Name:         u.FullName(),
			EmployeeCode: u.EmployeeCode,
			Department:   u.Department,
			Status:       "ABSENT",
		}
		if row, ok := byUser[u.ID.String()]; ok {
			resp.Stats.PresentToday++
			entry.Status = row.Status
			entry.ClockIn = row.ClockIn
		}
		resp.Today = append(resp.Today, entry)
	}
	resp.Stats.AbsentToday = resp.Stats.TotalEmployees - resp.Stats.PresentToday
	resp.Stats.PendingRequests = pending

	projects, err := s.listRecentProjects(ctx, actor.CompanyID)
	if err != nil {
		return OverviewResponse{}, err
	}
	resp.Projects = projects

	return resp, nil
}

func (s *service) listRecentProjects(ctx context.Context, companyID string) ([]ProjectSnapshot, error) {
	rows, err := s.projects.FindAllProjects(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
	})
	if len(rows) > projectPanelSize {
		rows = rows[:projectPanelSize]
	}
	out := make([]ProjectSnapshot, 0, len(rows))
	for _, p := range rows {
		status := "Inactive"
		if p.IsActive {
			status = "Active"
		}
		out = append(out, ProjectSnapshot{ID: p.ID.String(), Name: p.Name, Status: status})
	}
	return out, nil
}
