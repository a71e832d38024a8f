package rbacerrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrRoleNotFound = apperror.New(
		apperror.CodeNotFound,
		"role not found",
		http.StatusNotFound,
	)
	ErrRoleNameTaken = apperror.New(
		apperror.CodeConflict,
		"a role with this name already exists",
		http.StatusConflict,
	)
	ErrUnknownPermissionKey = apperror.New(
		apperror.CodeInvalidInput,
		"permission key does not exist",
		http.StatusBadRequest,
	)
	ErrDeprecatedPermissionKey = apperror.New(
		apperror.CodeInvalidInput,
		"permission key is deprecated and no longer grantable",
		http.StatusBadRequest,
	)
	ErrSystemRoleImmutable = apperror.New(
		apperror.CodeInvalidState,
		"system roles cannot be edited",
		http.StatusBadRequest,
	)
)
