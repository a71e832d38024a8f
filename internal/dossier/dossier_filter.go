package dossier

import (
	"encoding/json"

	"gorm.io/datatypes"

	"hrms/internal/rbac"
)

// sensitiveSections are withheld whole from viewers without the sensitive
// view permission. Redaction is by absence: the keys do not appear in the
// response at all.
var sensitiveSections = map[string]bool{
	SectionCompensation: true,
	SectionIdentity:     true,
	SectionFamily:       true,
}

// FieldFilter shapes a profile for a viewer. Self sees everything; other
// viewers need IsSystemAdmin or the sensitive view key for the restricted
// sections.
func FieldFilter(p Profile, viewer rbac.Capability, isSelf bool) ProfileResponse {
	canViewSensitive := isSelf || viewer.IsSystemAdmin || viewer.Has(rbac.SensitiveViewKey)

	sections := map[string]json.RawMessage{}
	put := func(name string, data datatypes.JSON) {
		if sensitiveSections[name] && !canViewSensitive {
			return
		}
		if len(data) == 0 {
			sections[name] = json.RawMessage(`{}`)
			return
		}
		sections[name] = json.RawMessage(data)
	}
	put(SectionPersonal, p.Personal)
	put(SectionIdentity, p.Identity)
	put(SectionContact, p.Contact)
	put(SectionFamily, p.Family)
	put(SectionEmployment, p.Employment)
	put(SectionCompensation, p.Compensation)
	put(SectionEducation, p.Education)
	put(SectionExperience, p.Experience)
	put(SectionSkills, p.Skills)

	var docs []Document
	if len(p.Documents) > 0 {
		_ = json.Unmarshal(p.Documents, &docs)
	}

	hris := HRISResponse{
		Status:          p.HRISStatus,
		IsDeclared:      p.IsDeclared,
		SubmittedAt:     p.SubmittedAt,
		DeclarationDate: p.DeclarationDate,
		RejectionReason: p.RejectionReason,
	}
	if p.ReviewerID != nil {
		v := p.ReviewerID.String()
		hris.ReviewerID = &v
	}

	return ProfileResponse{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		Sections:  sections,
		Documents: docs,
		HRIS:      hris,
	}
}
