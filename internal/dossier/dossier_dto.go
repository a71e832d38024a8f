package dossier

import (
	"encoding/json"
	"time"
)

type UpdateSectionRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}

type SubmitHRISRequest struct {
	// Sections carries section payloads merged into the profile before the
	// declaration is evaluated. Keys are section names.
	Sections map[string]json.RawMessage `json:"sections"`
	Declared bool                       `json:"declared"`
}

type DecisionRequest struct {
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason"`
}

type AddDocumentRequest struct {
	Category   string  `form:"category" binding:"required"`
	Title      string  `form:"title" binding:"required"`
	ExpiryDate *string `form:"expiry_date"`
}

// ProfileResponse is built by the field filter; section keys a viewer may
// not see are absent, not nulled.
type ProfileResponse struct {
	ID        string                     `json:"id"`
	UserID    string                     `json:"user_id"`
	Sections  map[string]json.RawMessage `json:"sections"`
	Documents []Document                 `json:"documents"`
	HRIS      HRISResponse               `json:"hris"`
}

type HRISResponse struct {
	Status          string     `json:"status"`
	IsDeclared      bool       `json:"is_declared"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DeclarationDate *time.Time `json:"declaration_date,omitempty"`
	ReviewerID      *string    `json:"reviewer_id,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}
