package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	projecterrors "hrms/internal/project/errors"
)

//go:generate mockgen -source=project_service.go -destination=mock/project_service_mock.go -package=mock
type Service interface {
	CreateProject(ctx context.Context, companyID string, req CreateProjectRequest) (ProjectResponse, error)
	ListProjects(ctx context.Context, companyID string) ([]ProjectResponse, error)
	UpdateProject(ctx context.Context, companyID, id string, req UpdateProjectRequest) (ProjectResponse, error)

	CreateTask(ctx context.Context, companyID string, req CreateTaskRequest) (TaskResponse, error)
	ListTasks(ctx context.Context, companyID, projectID string) ([]TaskResponse, error)
	UpdateTask(ctx context.Context, companyID, id string, req UpdateTaskRequest) (TaskResponse, error)

	// EnsureGeneralWorkTask returns the task that clock-out auto-logs are
	// booked against, creating the fallback project and task on first use.
	EnsureGeneralWorkTask(ctx context.Context, companyID string) (*Task, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("project.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("project.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) CreateProject(ctx context.Context, companyID string, req CreateProjectRequest) (ProjectResponse, error) {
	p := &Project{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		Name:      req.Name,
		IsActive:  true,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return ProjectResponse{}, projecterrors.ErrProjectNameTaken
		}
		return ProjectResponse{}, err
	}
	return mapProject(*p), nil
}

func (s *service) ListProjects(ctx context.Context, companyID string) ([]ProjectResponse, error) {
	rows, err := s.repo.FindAllProjects(ctx, companyID)
	if err != nil {
		return nil, err
	}
	res := make([]ProjectResponse, len(rows))
	for i, p := range rows {
		res[i] = mapProject(p)
	}
	return res, nil
}

func (s *service) UpdateProject(ctx context.Context, companyID, id string, req UpdateProjectRequest) (ProjectResponse, error) {
	p, err := s.repo.FindProjectByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProjectResponse{}, projecterrors.ErrProjectNotFound
		}
		return ProjectResponse{}, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return ProjectResponse{}, projecterrors.ErrProjectNameTaken
		}
		return ProjectResponse{}, err
	}
	return mapProject(*p), nil
}

func (s *service) CreateTask(ctx context.Context, companyID string, req CreateTaskRequest) (TaskResponse, error) {
	p, err := s.repo.FindProjectByID(ctx, companyID, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaskResponse{}, projecterrors.ErrProjectNotFound
		}
		return TaskResponse{}, err
	}
	if !p.IsActive {
		return TaskResponse{}, projecterrors.ErrProjectInactive
	}

	t := &Task{
		ID:        uuid.New(),
		CompanyID: p.CompanyID,
		ProjectID: p.ID,
		Name:      req.Name,
		IsActive:  true,
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		if isUniqueViolation(err) {
			return TaskResponse{}, projecterrors.ErrTaskNameTaken
		}
		return TaskResponse{}, err
	}
	t.Project = p
	return mapTask(*t), nil
}

func (s *service) ListTasks(ctx context.Context, companyID, projectID string) ([]TaskResponse, error) {
	rows, err := s.repo.FindTasksByProject(ctx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	res := make([]TaskResponse, len(rows))
	for i, t := range rows {
		res[i] = mapTask(t)
	}
	return res, nil
}

func (s *service) UpdateTask(ctx context.Context, companyID, id string, req UpdateTaskRequest) (TaskResponse, error) {
	t, err := s.repo.FindTaskByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaskResponse{}, projecterrors.ErrTaskNotFound
		}
		return TaskResponse{}, err
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateTask(ctx, t); err != nil {
		if isUniqueViolation(err) {
			return TaskResponse{}, projecterrors.ErrTaskNameTaken
		}
		return TaskResponse{}, err
	}
	return mapTask(*t), nil
}

func (s *service) EnsureGeneralWorkTask(ctx context.Context, companyID string) (*Task, error) {
	p, err := s.repo.FindProjectByName(ctx, companyID, GeneralWorkName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = &Project{
			ID:        uuid.New(),
			CompanyID: uuid.MustParse(companyID),
			Name:      GeneralWorkName,
			IsActive:  true,
		}
		if createErr := s.repo.CreateProject(ctx, p); createErr != nil {
			// Concurrent first clock-outs race to create it; loser re-reads.
			if !isUniqueViolation(createErr) {
				return nil, createErr
			}
			p, err = s.repo.FindProjectByName(ctx, companyID, GeneralWorkName)
			if err != nil {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}

	t, err := s.repo.FindTaskByName(ctx, companyID, p.ID.String(), GeneralWorkName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t = &Task{
			ID:        uuid.New(),
			CompanyID: p.CompanyID,
			ProjectID: p.ID,
			Name:      GeneralWorkName,
			IsActive:  true,
		}
		if createErr := s.repo.CreateTask(ctx, t); createErr != nil {
			if !isUniqueViolation(createErr) {
				return nil, createErr
			}
			t, err = s.repo.FindTaskByName(ctx, companyID, p.ID.String(), GeneralWorkName)
			if err != nil {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapProject(p Project) ProjectResponse {
	return ProjectResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		IsActive: p.IsActive,
	}
}

func mapTask(t Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID.String(),
		ProjectID: t.ProjectID.String(),
		Name:      t.Name,
		IsActive:  t.IsActive,
	}
	if t.Project != nil {
		resp.ProjectName = t.Project.Name
	}
	return resp
}
