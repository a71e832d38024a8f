package user

type CreateUserRequest struct {
	Email          string   `json:"email" binding:"required,email"`
	Password       string   `json:"password" binding:"required,min=8"`
	FirstName      string   `json:"first_name" binding:"required"`
	LastName       string   `json:"last_name"`
	EmployeeCode   string   `json:"employee_code"`
	Department     string   `json:"department"`
	EmploymentType string   `json:"employment_type" binding:"omitempty,oneof='Full Time' 'Part Time' Contract Intern Consultant Freelance Probation"`
	JoiningDate    string   `json:"joining_date"`
	RoleIDs        []string `json:"role_ids"`
	ManagerIDs     []string `json:"manager_ids"`
}

type UpdateUserRequest struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	EmployeeCode   string  `json:"employee_code"`
	Department     string  `json:"department"`
	EmploymentType string  `json:"employment_type" binding:"omitempty,oneof='Full Time' 'Part Time' Contract Intern Consultant Freelance Probation"`
	JoiningDate    string  `json:"joining_date"`
	IsActive       *bool   `json:"is_active"`
}

type SetRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

type SetManagersRequest struct {
	ManagerIDs []string `json:"manager_ids" binding:"required"`
}

type UserResponse struct {
	ID             string   `json:"id"`
	CompanyID      string   `json:"company_id"`
	Email          string   `json:"email"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	EmployeeCode   string   `json:"employee_code,omitempty"`
	Department     string   `json:"department,omitempty"`
	EmploymentType string   `json:"employment_type"`
	JoiningDate    string   `json:"joining_date,omitempty"`
	IsActive       bool     `json:"is_active"`
	Roles          []string `json:"roles"`
	ManagerIDs     []string `json:"manager_ids,omitempty"`
}
