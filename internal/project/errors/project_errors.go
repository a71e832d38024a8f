package projecterrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrProjectNotFound = apperror.New(
		apperror.CodeNotFound,
		"project not found",
		http.StatusNotFound,
	)
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"task not found",
		http.StatusNotFound,
	)
	ErrProjectNameTaken = apperror.New(
		apperror.CodeConflict,
		"a project with this name already exists",
		http.StatusConflict,
	)
	ErrTaskNameTaken = apperror.New(
		apperror.CodeConflict,
		"a task with this name already exists in the project",
		http.StatusConflict,
	)
	ErrProjectInactive = apperror.New(
		apperror.CodeInvalidState,
		"project is inactive",
		http.StatusConflict,
	)
)
