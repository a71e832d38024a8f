package events

import "time"

const AccrualCompletedTopic = "hr.leave.accrual.v1"

type AccrualCompletedEvent struct {
	EventType  string    `json:"event_type"`
	Run        string    `json:"run"`
	Period     string    `json:"period"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurred_at"`
}
