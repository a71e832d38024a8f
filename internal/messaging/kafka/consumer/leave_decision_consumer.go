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

func ConsumeLeaveDecisions(
	ctx context.Context,
	reader *kafkago.Reader,
	recorder audit.Recorder,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_decisions")
	log.Info("leave decision consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave decision consumer stopped")
				return
			}
			log.Error("fetch leave decision message failed", zap.Error(err))
			continue
		}

		var event events.LeaveDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave decision event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		companyID, err := uuid.Parse(event.CompanyID)
		if err != nil {
			log.Error("leave decision event carries a bad company id", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		detail, _ := json.Marshal(map[string]any{
			"leave_type": event.LeaveType,
			"status":     event.Status,
			"days_count": event.DaysCount,
			"decided_by": event.DecidedBy,
		})

		entry := audit.Entry{
			ID:        uuid.New(),
			CompanyID: companyID,
			Action:    "leave." + event.Status,
			Module:    "LEAVE",
			EntityID:  event.RequestID,
			Details:   datatypes.JSON(detail),
			CreatedAt: time.Now().UTC(),
		}
		if actor, err := uuid.Parse(event.DecidedBy); err == nil {
			entry.PerformedBy = &actor
		}

		if err := recorder.Record(ctx, entry); err != nil {
			log.Error("record leave decision failed",
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave decision message failed", zap.Error(err))
			continue
		}

		log.Info("leave decision audited",
			zap.String("request_id", event.RequestID),
			zap.String("status", event.Status),
		)
	}
}
