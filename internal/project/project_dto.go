package project

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,min=2,max=150"`
}

type UpdateProjectRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=150"`
	IsActive *bool   `json:"is_active"`
}

type CreateTaskRequest struct {
	ProjectID string `json:"project_id" binding:"required,uuid"`
	Name      string `json:"name" binding:"required,min=2,max=150"`
}

type UpdateTaskRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=150"`
	IsActive *bool   `json:"is_active"`
}

type ProjectResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type TaskResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
}
