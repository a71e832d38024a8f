package events

import "time"

const LeaveDecidedTopic = "hr.leave.decision.v1"

type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	CompanyID  string    `json:"company_id"`
	UserID     string    `json:"user_id"`
	LeaveType  string    `json:"leave_type"`
	Status     string    `json:"status"`
	DaysCount  float64   `json:"days_count"`
	DecidedBy  string    `json:"decided_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
