package dossier

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"hrms/internal/rbac"
)

func sampleProfile() Profile {
	return Profile{
		ID:           uuid.New(),
		CompanyID:    uuid.New(),
		UserID:       uuid.New(),
		Personal:     []byte(`{"firstName":"Asha"}`),
		Identity:     []byte(`{"pan":"ABCDE1234F"}`),
		Compensation: []byte(`{"ctc":1200000}`),
		Family:       []byte(`{"spouse":"Ravi"}`),
		Employment:   []byte(`{"designation":"Engineer"}`),
		HRISStatus:   HRISDraft,
	}
}

func TestFieldFilter_RedactsSensitiveSectionsForOthers(t *testing.T) {
	p := sampleProfile()
	resp := FieldFilter(p, rbac.Capability{}, false)

	body, err := json.Marshal(resp.Sections)
	assert.NoError(t, err)

	// Whole sections are absent, not nulled.
	var keys map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(body, &keys))
	assert.NotContains(t, keys, SectionCompensation)
	assert.NotContains(t, keys, SectionIdentity)
	assert.NotContains(t, keys, SectionFamily)
	assert.Contains(t, keys, SectionPersonal)
	assert.Contains(t, keys, SectionEmployment)
}

func TestFieldFilter_SelfSeesEverything(t *testing.T) {
	p := sampleProfile()
	resp := FieldFilter(p, rbac.Capability{}, true)

	assert.Contains(t, resp.Sections, SectionCompensation)
	assert.Contains(t, resp.Sections, SectionIdentity)
	assert.Contains(t, resp.Sections, SectionFamily)
}

func TestFieldFilter_SensitiveKeyGrantsFullView(t *testing.T) {
	p := sampleProfile()
	capability := rbac.Capability{Keys: map[string]struct{}{rbac.SensitiveViewKey: {}}}
	resp := FieldFilter(p, capability, false)

	assert.Contains(t, resp.Sections, SectionCompensation)
}

func TestFieldFilter_AdminSeesEverything(t *testing.T) {
	p := sampleProfile()
	resp := FieldFilter(p, rbac.Capability{IsSystemAdmin: true}, false)

	assert.Contains(t, resp.Sections, SectionCompensation)
	assert.Contains(t, resp.Sections, SectionIdentity)
}

func TestFieldFilter_EmptySectionsRenderAsEmptyObjects(t *testing.T) {
	p := Profile{ID: uuid.New(), UserID: uuid.New(), HRISStatus: HRISDraft}
	resp := FieldFilter(p, rbac.Capability{}, true)

	assert.Equal(t, json.RawMessage(`{}`), resp.Sections[SectionSkills])
}
