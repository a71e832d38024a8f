package attendanceerrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeConflict,
		"already clocked in for today",
		http.StatusConflict,
	)
	ErrNotClockedIn = apperror.New(
		apperror.CodeNotFound,
		"no clock-in found for today",
		http.StatusNotFound,
	)
	ErrAlreadyClockedOut = apperror.New(
		apperror.CodeInvalidState,
		"already clocked out for today",
		http.StatusConflict,
	)
	ErrNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance record not found",
		http.StatusNotFound,
	)
	ErrDuplicateDay = apperror.New(
		apperror.CodeConflict,
		"an attendance record already exists for this day",
		http.StatusConflict,
	)
	ErrAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"attendance request has already been decided",
		http.StatusConflict,
	)
	ErrMonthLocked = apperror.New(
		apperror.CodeInvalidState,
		"timesheet for this month is locked, attendance can no longer be edited",
		http.StatusConflict,
	)
	ErrBeforeJoining = apperror.New(
		apperror.CodeInvalidInput,
		"date is before the user's joining date",
		http.StatusBadRequest,
	)
	ErrClockOutBeforeIn = apperror.New(
		apperror.CodeInvalidInput,
		"clock-out must be after clock-in",
		http.StatusBadRequest,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a rejection reason is required",
		http.StatusBadRequest,
	)
)
