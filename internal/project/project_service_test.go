package project

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	projects map[string]*Project
	tasks    map[string]*Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projects: map[string]*Project{}, tasks: map[string]*Task{}}
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeRepo) CreateProject(ctx context.Context, p *Project) error {
	f.projects[p.Name] = p
	return nil
}
func (f *fakeRepo) FindProjectByID(ctx context.Context, companyID, id string) (*Project, error) {
	for _, p := range f.projects {
		if p.ID.String() == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindProjectByName(ctx context.Context, companyID, name string) (*Project, error) {
	if p, ok := f.projects[name]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindAllProjects(ctx context.Context, companyID string) ([]Project, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateProject(ctx context.Context, p *Project) error { return nil }

func (f *fakeRepo) CreateTask(ctx context.Context, t *Task) error {
	f.tasks[t.ProjectID.String()+":"+t.Name] = t
	return nil
}
func (f *fakeRepo) FindTaskByID(ctx context.Context, companyID, id string) (*Task, error) {
	for _, t := range f.tasks {
		if t.ID.String() == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindTaskByName(ctx context.Context, companyID, projectID, name string) (*Task, error) {
	if t, ok := f.tasks[projectID+":"+name]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindTasksByProject(ctx context.Context, companyID, projectID string) ([]Task, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateTask(ctx context.Context, t *Task) error { return nil }

func TestEnsureGeneralWorkTask_CreatesOnFirstUse(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	companyID := uuid.New().String()

	task, err := svc.EnsureGeneralWorkTask(context.Background(), companyID)
	assert.NoError(t, err)
	assert.Equal(t, GeneralWorkName, task.Name)
	assert.Len(t, repo.projects, 1)
	assert.Len(t, repo.tasks, 1)

	// second call reuses the same rows
	again, err := svc.EnsureGeneralWorkTask(context.Background(), companyID)
	assert.NoError(t, err)
	assert.Equal(t, task.ID, again.ID)
	assert.Len(t, repo.projects, 1)
	assert.Len(t, repo.tasks, 1)
}

func TestCreateTask_InactiveProjectRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	companyID := uuid.New()

	p := &Project{ID: uuid.New(), CompanyID: companyID, Name: "Apollo", IsActive: false}
	repo.projects[p.Name] = p

	_, err := svc.CreateTask(context.Background(), companyID.String(), CreateTaskRequest{
		ProjectID: p.ID.String(),
		Name:      "Design",
	})
	assert.Error(t, err)
}
