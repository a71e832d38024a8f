package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"hrms/internal/audit"
	"hrms/internal/events"
	"hrms/internal/messaging/kafka/consumer"
	"hrms/internal/shared/connection"
)

// RunConsumer projects decision events into the audit log until interrupted.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

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

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	recorder := audit.NewRecorder(gormDB)

	timesheetReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.TimesheetDecidedTopic,
		GroupID:        "hrms-decision-audit",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer timesheetReader.Close()

	leaveReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.LeaveDecidedTopic,
		GroupID:        "hrms-decision-audit",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer leaveReader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeTimesheetDecisions(ctx, timesheetReader, recorder, logger)
	go consumer.ConsumeLeaveDecisions(ctx, leaveReader, recorder, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
