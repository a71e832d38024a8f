package dossier

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hrms/internal/rbac"
	"hrms/internal/shared/apperror"
	"hrms/internal/shared/response"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("dossier.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dossier.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("dossier request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// targetUser resolves the profile owner: route param when present, the
// caller otherwise.
func targetUser(c *gin.Context) string {
	return c.Param("userId")
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.Get(c.Request.Context(), actor, targetUser(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdateSection(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.UpdateSection(c.Request.Context(), actor, targetUser(c), c.Param("section"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Submit(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	var req SubmitHRISRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.SubmitHRIS(c.Request.Context(), actor, targetUser(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Decide(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.DecideHRIS(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) PendingApprovals(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.PendingApprovals(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) AddDocument(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	var req AddDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.writeServiceError(c, apperror.RequiredField("file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer file.Close()

	resp, err := h.service.AddDocument(c.Request.Context(), actor, targetUser(c), req, fileHeader.Filename, file)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	actor, ok := rbac.PrincipalFrom(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.DeleteDocument(c.Request.Context(), actor, targetUser(c), c.Param("docId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
