package accrual

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hrms/internal/shared/apperror"
	"hrms/internal/shared/orgclock"
	"hrms/internal/shared/response"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("accrual.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("accrual.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("accrual request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) RunMonthly(c *gin.Context) {
	report, err := h.service.RunMonthlyAccrual(c.Request.Context(), time.Now())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report, nil)
}

func (h *Handler) RunYearly(c *gin.Context) {
	year := time.Now().In(orgclock.Location()).Year()
	if q := c.Query("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			h.writeServiceError(c, apperror.InvalidField("year"))
			return
		}
		year = parsed
	}

	report, err := h.service.RunYearlyProcessing(c.Request.Context(), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report, nil)
}
