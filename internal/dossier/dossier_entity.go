package dossier

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	HRISDraft           = "Draft"
	HRISPendingApproval = "Pending Approval"
	HRISApproved        = "Approved"
	HRISRejected        = "Rejected"
)

// Section names accepted by UpdateSection. Restricted ones additionally
// require the sensitive-edit permission even on the user's own profile.
const (
	SectionPersonal     = "personal"
	SectionIdentity     = "identity"
	SectionContact      = "contact"
	SectionFamily       = "family"
	SectionEmployment   = "employment"
	SectionCompensation = "compensation"
	SectionEducation    = "education"
	SectionExperience   = "experience"
	SectionSkills       = "skills"
)

// Profile is the HRIS dossier: one row per user, JSON section columns so HR
// can evolve section shapes without migrations.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Personal     datatypes.JSON `gorm:"type:jsonb"`
	Identity     datatypes.JSON `gorm:"type:jsonb"`
	Contact      datatypes.JSON `gorm:"type:jsonb"`
	Family       datatypes.JSON `gorm:"type:jsonb"`
	Employment   datatypes.JSON `gorm:"type:jsonb"`
	Compensation datatypes.JSON `gorm:"type:jsonb"`
	Education    datatypes.JSON `gorm:"type:jsonb"`
	Experience   datatypes.JSON `gorm:"type:jsonb"`
	Skills       datatypes.JSON `gorm:"type:jsonb"`

	// Documents is a JSON array of document descriptors; the blobs live in
	// the file store.
	Documents datatypes.JSON `gorm:"type:jsonb"`

	HRISStatus      string     `gorm:"type:varchar(20);not null;default:'Draft'"`
	IsDeclared      bool       `gorm:"not null;default:false"`
	SubmittedAt     *time.Time // stamped on first declared submission, never reset
	DeclarationDate *time.Time
	ReviewerID      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Profile) TableName() string {
	return "hris_profiles"
}

// Document is one entry of the Documents array.
type Document struct {
	ID                 string  `json:"id"`
	Category           string  `json:"category"`
	Title              string  `json:"title"`
	FileName           string  `json:"fileName"`
	URL                string  `json:"url"`
	UploadDate         string  `json:"uploadDate"`
	ExpiryDate         *string `json:"expiryDate,omitempty"`
	VerificationStatus string  `json:"verificationStatus"`
}
