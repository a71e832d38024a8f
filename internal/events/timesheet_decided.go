package events

import "time"

const TimesheetDecidedTopic = "hr.timesheet.decision.v1"

type TimesheetDecidedEvent struct {
	EventType   string    `json:"event_type"`
	TimesheetID string    `json:"timesheet_id"`
	CompanyID   string    `json:"company_id"`
	UserID      string    `json:"user_id"`
	Month       string    `json:"month"`
	Status      string    `json:"status"`
	DecidedBy   string    `json:"decided_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}
