package usererrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrEmailTaken = apperror.New(
		apperror.CodeConflict,
		"a user with this email already exists",
		http.StatusConflict,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrInvalidJoiningDate = apperror.New(
		apperror.CodeInvalidInput,
		"invalid joining_date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrRoleNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"role does not belong to this company",
		http.StatusBadRequest,
	)
	ErrManagerNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"manager does not belong to this company",
		http.StatusBadRequest,
	)
	ErrSelfManager = apperror.New(
		apperror.CodeInvalidInput,
		"a user cannot be their own reporting manager",
		http.StatusBadRequest,
	)
)
