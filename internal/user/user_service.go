package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hrms/internal/rbac"
	usererrors "hrms/internal/user/errors"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateUserRequest) (UserResponse, error)
	GetAll(ctx context.Context, companyID string) ([]UserResponse, error)
	GetByID(ctx context.Context, companyID, id string) (UserResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateUserRequest) (UserResponse, error)
	SetRoles(ctx context.Context, companyID, id string, req SetRolesRequest) (UserResponse, error)
	SetManagers(ctx context.Context, companyID, id string, req SetManagersRequest) (UserResponse, error)
	Deactivate(ctx context.Context, companyID, id string) error
}

type service struct {
	repo     Repository
	rbacRepo rbac.Repository
	logger   *zap.Logger
}

func NewService(repo Repository, rbacRepo rbac.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{repo: repo, rbacRepo: rbacRepo, logger: l}
}

func (s *service) Create(ctx context.Context, companyID string, req CreateUserRequest) (UserResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidCompanyID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, err
	}

	u := &User{
		ID:           uuid.New(),
		CompanyID:    companyUUID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmployeeCode: req.EmployeeCode,
		Department:   req.Department,
	}
	if req.EmploymentType != "" {
		u.EmploymentType = req.EmploymentType
	} else {
		u.EmploymentType = "Full Time"
	}
	u.IsActive = true
	if req.JoiningDate != "" {
		d, err := time.Parse("2006-01-02", req.JoiningDate)
		if err != nil {
			return UserResponse{}, usererrors.ErrInvalidJoiningDate
		}
		u.JoiningDate = &d
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return UserResponse{}, usererrors.ErrEmailTaken
		}
		s.logger.Error("create user persist failed", zap.Error(err))
		return UserResponse{}, err
	}

	if len(req.RoleIDs) > 0 {
		if _, err := s.SetRoles(ctx, companyID, u.ID.String(), SetRolesRequest{RoleIDs: req.RoleIDs}); err != nil {
			return UserResponse{}, err
		}
	}
	if len(req.ManagerIDs) > 0 {
		if _, err := s.SetManagers(ctx, companyID, u.ID.String(), SetManagersRequest{ManagerIDs: req.ManagerIDs}); err != nil {
			return UserResponse{}, err
		}
	}

	saved, err := s.repo.FindByID(ctx, companyID, u.ID.String())
	if err != nil {
		return UserResponse{}, err
	}
	s.logger.Info("user created",
		zap.String("user_id", u.ID.String()),
		zap.String("company_id", companyID),
	)
	return mapToResponse(*saved), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]UserResponse, error) {
	users, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = mapToResponse(u)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (UserResponse, error) {
	u, err := s.findUser(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(*u), nil
}

func (s *service) Update(ctx context.Context, companyID, id string, req UpdateUserRequest) (UserResponse, error) {
	u, err := s.findUser(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, err
	}

	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.EmployeeCode != "" {
		u.EmployeeCode = req.EmployeeCode
	}
	if req.Department != "" {
		u.Department = req.Department
	}
	if req.EmploymentType != "" {
		u.EmploymentType = req.EmploymentType
	}
	if req.JoiningDate != "" {
		d, err := time.Parse("2006-01-02", req.JoiningDate)
		if err != nil {
			return UserResponse{}, usererrors.ErrInvalidJoiningDate
		}
		u.JoiningDate = &d
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(*u), nil
}

func (s *service) SetRoles(ctx context.Context, companyID, id string, req SetRolesRequest) (UserResponse, error) {
	u, err := s.findUser(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, err
	}

	roles := make([]rbac.Role, 0, len(req.RoleIDs))
	for _, roleID := range req.RoleIDs {
		role, err := s.rbacRepo.FindRoleByID(ctx, companyID, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return UserResponse{}, usererrors.ErrRoleNotInCompany
			}
			return UserResponse{}, err
		}
		roles = append(roles, *role)
	}

	if err := s.repo.ReplaceRoles(ctx, u, roles); err != nil {
		return UserResponse{}, err
	}

	// Roles changed: bump the token version so stale sessions cannot keep
	// acting under the old permission set.
	if err := s.repo.BumpTokenVersion(ctx, id); err != nil {
		return UserResponse{}, err
	}

	s.logger.Info("user roles replaced",
		zap.String("user_id", id),
		zap.Int("roles", len(roles)),
	)

	saved, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(*saved), nil
}

func (s *service) SetManagers(ctx context.Context, companyID, id string, req SetManagersRequest) (UserResponse, error) {
	u, err := s.findUser(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, err
	}

	managers := make([]*User, 0, len(req.ManagerIDs))
	for _, managerID := range req.ManagerIDs {
		if managerID == id {
			return UserResponse{}, usererrors.ErrSelfManager
		}
		m, err := s.repo.FindByID(ctx, companyID, managerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return UserResponse{}, usererrors.ErrManagerNotInCompany
			}
			return UserResponse{}, err
		}
		managers = append(managers, m)
	}

	if err := s.repo.ReplaceManagers(ctx, u, managers); err != nil {
		return UserResponse{}, err
	}

	saved, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(*saved), nil
}

func (s *service) Deactivate(ctx context.Context, companyID, id string) error {
	u, err := s.findUser(ctx, companyID, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	// Kill outstanding sessions immediately.
	return s.repo.BumpTokenVersion(ctx, id)
}

func (s *service) findUser(ctx context.Context, companyID, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(u User) UserResponse {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = r.Name
	}
	managerIDs := make([]string, len(u.Managers))
	for i, m := range u.Managers {
		managerIDs[i] = m.ID.String()
	}

	resp := UserResponse{
		ID:             u.ID.String(),
		CompanyID:      u.CompanyID.String(),
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		EmployeeCode:   u.EmployeeCode,
		Department:     u.Department,
		EmploymentType: u.EmploymentType,
		IsActive:       u.IsActive,
		Roles:          roles,
		ManagerIDs:     managerIDs,
	}
	if u.JoiningDate != nil {
		resp.JoiningDate = u.JoiningDate.Format("2006-01-02")
	}
	return resp
}

// AsPrincipal flattens a loaded user into the resolver's input shape.
func AsPrincipal(u *User) rbac.Principal {
	roles := make([]rbac.RoleRef, len(u.Roles))
	for i, r := range u.Roles {
		keys := make([]string, len(r.Permissions))
		for j, p := range r.Permissions {
			keys[j] = p.Key
		}
		roles[i] = rbac.RoleRef{
			Name:        r.Name,
			IsSystem:    r.IsSystem,
			Permissions: keys,
		}
	}
	return rbac.Principal{
		UserID:       u.ID.String(),
		CompanyID:    u.CompanyID.String(),
		TokenVersion: u.TokenVersion,
		Roles:        roles,
	}
}
