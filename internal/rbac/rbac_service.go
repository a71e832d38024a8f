package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	rbacerrors "hrms/internal/rbac/errors"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	CreateRole(ctx context.Context, companyID string, req CreateRoleRequest) (RoleResponse, error)
	GetRoles(ctx context.Context, companyID string) ([]RoleResponse, error)
	GetRole(ctx context.Context, companyID, id string) (RoleResponse, error)
	UpdateRole(ctx context.Context, companyID, id string, req UpdateRoleRequest) (RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, logger: l}
}

// resolveGrantable maps requested keys onto stored permissions, rejecting
// unknown and deprecated keys. The wildcard key is grantable as-is.
func (s *service) resolveGrantable(ctx context.Context, keys []string) ([]Permission, error) {
	wantWildcard := false
	lookup := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, key := range keys {
		if key == WildcardKey {
			wantWildcard = true
			continue
		}
		if !seen[key] {
			seen[key] = true
			lookup = append(lookup, key)
		}
	}

	var perms []Permission
	if len(lookup) > 0 {
		found, err := s.repo.FindPermissionsByKeys(ctx, lookup)
		if err != nil {
			return nil, err
		}
		byKey := make(map[string]Permission, len(found))
		for _, p := range found {
			byKey[p.Key] = p
		}
		for _, key := range lookup {
			p, ok := byKey[key]
			if !ok {
				return nil, rbacerrors.ErrUnknownPermissionKey
			}
			if p.IsDeprecated {
				return nil, rbacerrors.ErrDeprecatedPermissionKey
			}
			perms = append(perms, p)
		}
	}

	if wantWildcard {
		wildcard, err := s.repo.FindPermissionsByKeys(ctx, []string{WildcardKey})
		if err != nil {
			return nil, err
		}
		if len(wildcard) == 0 {
			// Wildcard lives in storage only when granted; create lazily.
			created, err := s.repo.UpsertPermission(ctx, CatalogEntry{
				Key:         WildcardKey,
				Module:      "SYSTEM",
				Description: "All permissions",
			})
			if err != nil {
				return nil, err
			}
			wildcard = []Permission{*created}
		}
		perms = append(perms, wildcard[0])
	}
	return perms, nil
}

func (s *service) CreateRole(ctx context.Context, companyID string, req CreateRoleRequest) (RoleResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RoleResponse{}, rbacerrors.ErrInvalidCompanyID
	}

	perms, err := s.resolveGrantable(ctx, req.Permissions)
	if err != nil {
		return RoleResponse{}, err
	}

	role := &Role{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: perms,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		if isUniqueViolation(err) {
			return RoleResponse{}, rbacerrors.ErrRoleNameTaken
		}
		s.logger.Error("create role failed", zap.String("name", req.Name), zap.Error(err))
		return RoleResponse{}, err
	}

	s.logger.Info("role created",
		zap.String("role_id", role.ID.String()),
		zap.String("company_id", companyID),
		zap.String("name", role.Name),
	)
	return mapRoleToResponse(*role), nil
}

func (s *service) GetRoles(ctx context.Context, companyID string) ([]RoleResponse, error) {
	roles, err := s.repo.FindAllRolesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]RoleResponse, len(roles))
	for i, role := range roles {
		resp[i] = mapRoleToResponse(role)
	}
	return resp, nil
}

func (s *service) GetRole(ctx context.Context, companyID, id string) (RoleResponse, error) {
	role, err := s.repo.FindRoleByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RoleResponse{}, rbacerrors.ErrRoleNotFound
		}
		return RoleResponse{}, err
	}
	return mapRoleToResponse(*role), nil
}

func (s *service) UpdateRole(ctx context.Context, companyID, id string, req UpdateRoleRequest) (RoleResponse, error) {
	role, err := s.repo.FindRoleByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RoleResponse{}, rbacerrors.ErrRoleNotFound
		}
		return RoleResponse{}, err
	}
	if role.IsSystem {
		return RoleResponse{}, rbacerrors.ErrSystemRoleImmutable
	}

	perms, err := s.resolveGrantable(ctx, req.Permissions)
	if err != nil {
		return RoleResponse{}, err
	}

	role.Name = req.Name
	role.Description = req.Description
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return RoleResponse{}, err
	}
	if err := s.repo.ReplaceRolePermissions(ctx, role, perms); err != nil {
		return RoleResponse{}, err
	}

	// Outstanding tokens of members carry the old permission set; bump the
	// token version so they must re-authenticate.
	if err := s.repo.BumpMemberTokenVersions(ctx, role.ID.String()); err != nil {
		s.logger.Error("bump member token versions failed",
			zap.String("role_id", role.ID.String()),
			zap.Error(err),
		)
		return RoleResponse{}, err
	}

	role.Permissions = perms
	s.logger.Info("role updated",
		zap.String("role_id", role.ID.String()),
		zap.Int("permissions", len(perms)),
	)
	return mapRoleToResponse(*role), nil
}

func (s *service) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	keys := make([]string, 0, len(Catalog()))
	for _, entry := range Catalog() {
		keys = append(keys, entry.Key)
	}
	perms, err := s.repo.FindPermissionsByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	resp := make([]PermissionResponse, len(perms))
	for i, p := range perms {
		resp[i] = PermissionResponse{
			ID:           p.ID.String(),
			Key:          p.Key,
			Module:       p.Module,
			Description:  p.Description,
			IsDeprecated: p.IsDeprecated,
		}
	}
	return resp, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapRoleToResponse(role Role) RoleResponse {
	keys := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		keys[i] = p.Key
	}
	return RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		Permissions: keys,
	}
}
