package dossiererrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrNotFound = apperror.New(
		apperror.CodeNotFound,
		"profile not found",
		http.StatusNotFound,
	)
	ErrUnknownSection = apperror.New(
		apperror.CodeInvalidInput,
		"unknown profile section",
		http.StatusBadRequest,
	)
	ErrNotPendingApproval = apperror.New(
		apperror.CodeInvalidState,
		"profile is not pending approval",
		http.StatusBadRequest,
	)
	ErrDocumentNotFound = apperror.New(
		apperror.CodeNotFound,
		"document not found",
		http.StatusNotFound,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a reason is required to reject the profile",
		http.StatusBadRequest,
	)
)
