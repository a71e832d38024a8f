package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hrms/internal/audit"
	"hrms/internal/events"
)

// ConsumeTimesheetDecisions projects timesheet decision events into the
// audit log so approvals are traceable even when the deciding request's own
// write is long gone.
func ConsumeTimesheetDecisions(
	ctx context.Context,
	reader *kafkago.Reader,
	recorder audit.Recorder,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.timesheet_decisions")
	log.Info("timesheet decision consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("timesheet decision consumer stopped")
				return
			}
			log.Error("fetch timesheet decision message failed", zap.Error(err))
			continue
		}

		var event events.TimesheetDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode timesheet decision event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		entry, err := decisionEntry(event)
		if err != nil {
			log.Error("build audit entry failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := recorder.Record(ctx, entry); err != nil {
			log.Error("record timesheet decision failed",
				zap.String("timesheet_id", event.TimesheetID),
				zap.String("company_id", event.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit timesheet decision message failed", zap.Error(err))
			continue
		}

		log.Info("timesheet decision audited",
			zap.String("timesheet_id", event.TimesheetID),
			zap.String("status", event.Status),
		)
	}
}

func decisionEntry(event events.TimesheetDecidedEvent) (audit.Entry, error) {
	companyID, err := uuid.Parse(event.CompanyID)
	if err != nil {
		return audit.Entry{}, err
	}

	detail, err := json.Marshal(map[string]string{
		"month":      event.Month,
		"status":     event.Status,
		"decided_by": event.DecidedBy,
	})
	if err != nil {
		return audit.Entry{}, err
	}

	entry := audit.Entry{
		ID:        uuid.New(),
		CompanyID: companyID,
		Action:    "timesheet." + event.Status,
		Module:    "TIMESHEET",
		EntityID:  event.TimesheetID,
		Details:   datatypes.JSON(detail),
		CreatedAt: time.Now().UTC(),
	}
	if actor, err := uuid.Parse(event.DecidedBy); err == nil {
		entry.PerformedBy = &actor
	}
	return entry, nil
}
