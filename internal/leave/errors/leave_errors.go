package leaveerrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrPolicyNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave policy not found",
		http.StatusNotFound,
	)
	ErrPolicyInactive = apperror.New(
		apperror.CodeInvalidInput,
		"leave policy is not active",
		http.StatusBadRequest,
	)
	ErrPolicyTypeTaken = apperror.New(
		apperror.CodeConflict,
		"a policy for this leave type already exists",
		http.StatusConflict,
	)
	ErrHolidayNotFound = apperror.New(
		apperror.CodeNotFound,
		"holiday not found",
		http.StatusNotFound,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrBackdatedNotAllowed = apperror.New(
		apperror.CodeInvalidInput,
		"backdated leave is not allowed for this leave type",
		http.StatusBadRequest,
	)
	ErrHalfDaySingleDate = apperror.New(
		apperror.CodeInvalidInput,
		"half-day leave must start and end on the same date",
		http.StatusBadRequest,
	)
	ErrZeroDays = apperror.New(
		apperror.CodeInvalidInput,
		"the selected range contains no leave days",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidInput,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
	ErrAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been decided",
		http.StatusConflict,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a rejection reason is required",
		http.StatusBadRequest,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requester can cancel this leave",
		http.StatusForbidden,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"end date must not be before start date",
		http.StatusBadRequest,
	)
)
