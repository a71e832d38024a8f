package timesheeterrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrNotFound = apperror.New(
		apperror.CodeNotFound,
		"timesheet not found",
		http.StatusNotFound,
	)
	ErrEntryNotFound = apperror.New(
		apperror.CodeNotFound,
		"work log entry not found",
		http.StatusNotFound,
	)
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"task not found",
		http.StatusNotFound,
	)
	ErrDuplicateEntry = apperror.New(
		apperror.CodeInvalidInput,
		"a work log for this task and day already exists",
		http.StatusBadRequest,
	)
	ErrMonthLocked = apperror.New(
		apperror.CodeInvalidState,
		"timesheet is locked for this month",
		http.StatusConflict,
	)
	ErrNotSubmitted = apperror.New(
		apperror.CodeInvalidState,
		"only submitted timesheets can be decided",
		http.StatusConflict,
	)
	ErrAlreadyFinal = apperror.New(
		apperror.CodeInvalidState,
		"timesheet has already been decided",
		http.StatusConflict,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a rejection reason is required",
		http.StatusBadRequest,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the timesheet owner can perform this action",
		http.StatusForbidden,
	)
)
