package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hrms/internal/accrual"
	"hrms/internal/leave"
	"hrms/internal/messaging/kafka"
	"hrms/internal/shared/connection"
	"hrms/internal/shared/orgclock"
	"hrms/internal/user"
)

// RunAccrual executes one engine run and exits. The first argument selects
// the run: "monthly", or "yearly" with an optional target year.
func RunAccrual(args []string) error {
	logger := zap.L().Named("app.accrual")

	if len(args) == 0 {
		return fmt.Errorf("usage: accrual monthly|yearly [year]")
	}

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	leaveRepo := leave.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	engine := accrual.NewService(leaveRepo, userRepo, outboxRepo, logger)

	ctx := context.Background()

	var report accrual.Report
	switch args[0] {
	case "monthly":
		report, err = engine.RunMonthlyAccrual(ctx, time.Now())
	case "yearly":
		year := time.Now().In(orgclock.Location()).Year()
		if len(args) > 1 {
			year, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[1])
			}
		}
		report, err = engine.RunYearlyProcessing(ctx, year)
	default:
		return fmt.Errorf("unknown run %q, want monthly or yearly", args[0])
	}
	if err != nil {
		return err
	}

	logger.Info("accrual run complete",
		zap.String("run", report.Run),
		zap.String("period", report.Period),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
	)
	return nil
}
