package events

import "time"

const DossierDecidedTopic = "hr.dossier.declaration.v1"

type DossierDecidedEvent struct {
	EventType  string    `json:"event_type"`
	ProfileID  string    `json:"profile_id"`
	CompanyID  string    `json:"company_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	DecidedBy  string    `json:"decided_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
