package accrual

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"hrms/internal/events"
	"hrms/internal/leave"
	"hrms/internal/messaging/kafka"
	"hrms/internal/shared/orgclock"
	"hrms/internal/user"
)

// UserDirectory lists the population the engine walks.
type UserDirectory interface {
	ListActive(ctx context.Context) ([]user.User, error)
}

// Report summarizes one engine run. Failed counts (user, policy) pairs that
// errored; a failing pair never aborts the run.
type Report struct {
	Run       string `json:"run"`
	Period    string `json:"period"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

//go:generate mockgen -source=accrual_service.go -destination=mock/accrual_service_mock.go -package=mock
type Service interface {
	RunMonthlyAccrual(ctx context.Context, now time.Time) (Report, error)
	RunYearlyProcessing(ctx context.Context, year int) (Report, error)
}

type service struct {
	leaves leave.Repository
	users  UserDirectory
	outbox kafka.OutboxRepository
	group  singleflight.Group
	logger *zap.Logger
}

func NewService(leaves leave.Repository, users UserDirectory, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("accrual.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("accrual.service")
	}
	return &service{leaves: leaves, users: users, outbox: outbox, logger: l}
}

// RunMonthlyAccrual credits every active user one accrual step for each
// Monthly policy. Concurrent triggers for the same month share one run.
func (s *service) RunMonthlyAccrual(ctx context.Context, now time.Time) (Report, error) {
	month := orgclock.MonthOf(now)
	v, err, _ := s.group.Do("monthly:"+month, func() (any, error) {
		return s.runMonthly(ctx, now, month)
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

func (s *service) runMonthly(ctx context.Context, now time.Time, month string) (Report, error) {
	report := Report{Run: "monthly", Period: month}

	configs, err := s.leaves.FindActiveConfigs(ctx)
	if err != nil {
		return report, err
	}
	members, err := s.users.ListActive(ctx)
	if err != nil {
		return report, err
	}

	year := now.In(orgclock.Location()).Year()
	for _, cfg := range configs {
		if cfg.AccrualType != leave.AccrualMonthly {
			continue
		}
		for _, m := range members {
			if err := s.accrueOne(ctx, m, cfg, year); err != nil {
				report.Failed++
				s.logger.Error("monthly accrual failed for user",
					zap.String("user_id", m.ID.String()),
					zap.String("leave_type", cfg.LeaveType),
					zap.Error(err),
				)
				continue
			}
			report.Processed++
		}
	}

	s.publishReport(ctx, report)
	s.logger.Info("monthly accrual finished",
		zap.String("period", month),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *service) accrueOne(ctx context.Context, m user.User, cfg leave.Config, year int) error {
	bal, err := s.ensureBalance(ctx, m, cfg.LeaveType, year)
	if err != nil {
		return err
	}

	accrued := bal.Accrued + cfg.AccrualAmount
	// The yearly limit caps what a policy accrues, not the carried opening.
	if cfg.MaxLimitPerYear > 0 && accrued > cfg.MaxLimitPerYear {
		accrued = cfg.MaxLimitPerYear
	}
	if accrued == bal.Accrued {
		return nil
	}
	bal.Accrued = accrued
	return s.leaves.UpdateBalance(ctx, bal)
}

// RunYearlyProcessing rolls the previous year's closing into the new year's
// opening and seeds one-shot credits for Yearly policies. Re-running is safe:
// an existing new-year row only has its opening recomputed.
func (s *service) RunYearlyProcessing(ctx context.Context, year int) (Report, error) {
	v, err, _ := s.group.Do("yearly:"+strconv.Itoa(year), func() (any, error) {
		return s.runYearly(ctx, year)
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

func (s *service) runYearly(ctx context.Context, year int) (Report, error) {
	report := Report{Run: "yearly", Period: strconv.Itoa(year)}

	configs, err := s.leaves.FindActiveConfigs(ctx)
	if err != nil {
		return report, err
	}
	members, err := s.users.ListActive(ctx)
	if err != nil {
		return report, err
	}

	for _, cfg := range configs {
		for _, m := range members {
			if err := s.rollOne(ctx, m, cfg, year); err != nil {
				report.Failed++
				s.logger.Error("yearly processing failed for user",
					zap.String("user_id", m.ID.String()),
					zap.String("leave_type", cfg.LeaveType),
					zap.Error(err),
				)
				continue
			}
			report.Processed++
		}
	}

	s.publishReport(ctx, report)
	s.logger.Info("yearly processing finished",
		zap.String("period", report.Period),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *service) rollOne(ctx context.Context, m user.User, cfg leave.Config, year int) error {
	opening := 0.0
	prev, err := s.leaves.FindBalance(ctx, m.ID.String(), cfg.LeaveType, year-1)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && cfg.CarryForward {
		opening = prev.Closing()
		if cfg.MaxCarryForward > 0 && opening > cfg.MaxCarryForward {
			opening = cfg.MaxCarryForward
		}
		if opening < 0 {
			opening = 0
		}
	}

	current, err := s.leaves.FindBalance(ctx, m.ID.String(), cfg.LeaveType, year)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		// A row may predate the run (lazily created by a leave application);
		// the Yearly one-shot credit still applies to it. Assignment keeps
		// re-runs idempotent.
		current.Opening = opening
		if cfg.AccrualType == leave.AccrualYearly {
			current.Accrued = cfg.AccrualAmount
		}
		return s.leaves.UpdateBalance(ctx, current)
	}

	b := &leave.Balance{
		ID:        uuid.New(),
		CompanyID: m.CompanyID,
		UserID:    m.ID,
		LeaveType: cfg.LeaveType,
		Year:      year,
		Opening:   opening,
	}
	if cfg.AccrualType == leave.AccrualYearly {
		b.Accrued = cfg.AccrualAmount
	}
	if createErr := s.leaves.CreateBalance(ctx, b); createErr != nil {
		// A concurrent insert won; fix its opening and seed as above.
		existing, findErr := s.leaves.FindBalance(ctx, m.ID.String(), cfg.LeaveType, year)
		if findErr != nil {
			return createErr
		}
		existing.Opening = opening
		if cfg.AccrualType == leave.AccrualYearly {
			existing.Accrued = cfg.AccrualAmount
		}
		return s.leaves.UpdateBalance(ctx, existing)
	}
	return nil
}

func (s *service) ensureBalance(ctx context.Context, m user.User, leaveType string, year int) (*leave.Balance, error) {
	b, err := s.leaves.FindBalance(ctx, m.ID.String(), leaveType, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b = &leave.Balance{
		ID:        uuid.New(),
		CompanyID: m.CompanyID,
		UserID:    m.ID,
		LeaveType: leaveType,
		Year:      year,
	}
	if createErr := s.leaves.CreateBalance(ctx, b); createErr != nil {
		return s.leaves.FindBalance(ctx, m.ID.String(), leaveType, year)
	}
	return b, nil
}

func (s *service) publishReport(ctx context.Context, report Report) {
	event, err := kafka.NewOutboxEvent(
		"accrual_run",
		fmt.Sprintf("%s:%s", report.Run, report.Period),
		"accrual_completed",
		events.AccrualCompletedTopic,
		events.AccrualCompletedEvent{
			EventType:  "accrual_completed",
			Run:        report.Run,
			Period:     report.Period,
			Processed:  report.Processed,
			Failed:     report.Failed,
			OccurredAt: time.Now().UTC(),
		},
	)
	if err != nil {
		s.logger.Error("accrual event build failed", zap.Error(err))
		return
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.logger.Error("accrual event enqueue failed", zap.Error(err))
	}
}
