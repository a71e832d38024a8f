package dossier

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"hrms/internal/audit"
	dossiererrors "hrms/internal/dossier/errors"
	"hrms/internal/messaging/kafka"
	"hrms/internal/rbac"
	"hrms/internal/user"
)

type fakeRepo struct {
	profiles map[string]*Profile // keyed by user id
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: map[string]*Profile{}}
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, p *Profile) error {
	f.profiles[p.UserID.String()] = p
	return nil
}
func (f *fakeRepo) FindByUser(ctx context.Context, companyID, userID string) (*Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindByID(ctx context.Context, companyID, id string) (*Profile, error) {
	for _, p := range f.profiles {
		if p.ID.String() == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRepo) FindPendingByCompany(ctx context.Context, companyID string) ([]Profile, error) {
	var out []Profile
	for _, p := range f.profiles {
		if p.HRISStatus == HRISPendingApproval {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (f *fakeRepo) Update(ctx context.Context, p *Profile) error {
	f.profiles[p.UserID.String()] = p
	return nil
}

type fakeUsers struct{}

func (f *fakeUsers) FindByID(ctx context.Context, companyID, id string) (*user.User, error) {
	return &user.User{
		ID:           uuid.MustParse(id),
		CompanyID:    uuid.MustParse(companyID),
		FirstName:    "Asha",
		LastName:     "Iyer",
		EmployeeCode: "EMP042",
		IsActive:     true,
	}, nil
}

type fakeResolver struct{ capability rbac.Capability }

func (f *fakeResolver) Resolve(ctx context.Context, p rbac.Principal) (rbac.Capability, error) {
	return f.capability, nil
}

type fakeManagers struct{ edges map[string]bool }

func (f *fakeManagers) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	return f.edges[managerID+":"+userID], nil
}

type fakeStore struct {
	saved     []string
	deleted   []string
	deleteErr error
}

func (f *fakeStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	url := "/uploads/" + name
	f.saved = append(f.saved, url)
	return url, nil
}
func (f *fakeStore) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return f.deleteErr
}

type fakeRecorder struct{ entries []audit.Entry }

func (f *fakeRecorder) Record(ctx context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}
func (f *fakeRecorder) ListForEntity(ctx context.Context, companyID, module, entityID string) ([]audit.Entry, error) {
	return nil, nil
}

type fakeOutbox struct{ created []kafka.OutboxEvent }

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error                  { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

func keys(names ...string) rbac.Capability {
	ks := make(map[string]struct{}, len(names))
	for _, n := range names {
		ks[n] = struct{}{}
	}
	return rbac.Capability{Keys: ks}
}

type testEnv struct {
	svc      Service
	repo     *fakeRepo
	store    *fakeStore
	recorder *fakeRecorder
	outbox   *fakeOutbox
	mock     sqlmock.Sqlmock
}

func newTestEnv(t *testing.T, res *fakeResolver, mgrs *fakeManagers) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newFakeRepo()
	store := &fakeStore{}
	recorder := &fakeRecorder{}
	outbox := &fakeOutbox{}
	gate := rbac.NewGate(res, mgrs, rbac.DefaultGateConfig())
	svc := NewService(db, repo, &fakeUsers{}, res, gate, store, recorder, outbox)
	return &testEnv{svc: svc, repo: repo, store: store, recorder: recorder, outbox: outbox, mock: mock}
}

func TestGet_LazilyCreatesSeededProfile(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	resp, err := env.svc.Get(context.Background(), actor, "")

	assert.NoError(t, err)
	assert.Equal(t, actor.UserID, resp.UserID)
	assert.Equal(t, HRISDraft, resp.HRIS.Status)

	var personal map[string]string
	assert.NoError(t, json.Unmarshal(resp.Sections[SectionPersonal], &personal))
	assert.Equal(t, "Asha", personal["firstName"])
	assert.Equal(t, "EMP042", personal["employeeCode"])
}

func TestGet_OtherUserNeedsViewPermission(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	other := uuid.NewString()
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	_, err := env.svc.Get(context.Background(), actor, other)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dossier.view")
}

func TestGet_OtherViewerGetsRedactedSections(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	other := uuid.NewString()
	env := newTestEnv(t, &fakeResolver{capability: keys("dossier.view")}, &fakeManagers{})

	resp, err := env.svc.Get(context.Background(), actor, other)

	assert.NoError(t, err)
	assert.NotContains(t, resp.Sections, SectionCompensation)
	assert.NotContains(t, resp.Sections, SectionIdentity)
	assert.NotContains(t, resp.Sections, SectionFamily)
}

func TestUpdateSection_SelfEditsPlainSection(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	resp, err := env.svc.UpdateSection(context.Background(), actor, "", SectionContact, UpdateSectionRequest{
		Data: json.RawMessage(`{"phone":"9876543210"}`),
	})

	assert.NoError(t, err)
	assert.JSONEq(t, `{"phone":"9876543210"}`, string(resp.Sections[SectionContact]))
	assert.Len(t, env.recorder.entries, 1)
	assert.Equal(t, "dossier.section_updated", env.recorder.entries[0].Action)
}

func TestUpdateSection_RestrictedSelfSectionNeedsSensitiveKey(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	_, err := env.svc.UpdateSection(context.Background(), actor, "", SectionCompensation, UpdateSectionRequest{
		Data: json.RawMessage(`{"ctc":1}`),
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), rbac.SensitiveEditKey)

	env2 := newTestEnv(t, &fakeResolver{capability: keys(rbac.SensitiveEditKey)}, &fakeManagers{})
	_, err = env2.svc.UpdateSection(context.Background(), actor, "", SectionCompensation, UpdateSectionRequest{
		Data: json.RawMessage(`{"ctc":1}`),
	})
	assert.NoError(t, err)
}

func TestUpdateSection_UnknownSectionRejected(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	_, err := env.svc.UpdateSection(context.Background(), actor, "", "salaryband", UpdateSectionRequest{
		Data: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, dossiererrors.ErrUnknownSection)
}

func TestSubmitHRIS_StampsSubmittedAtOnce(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	resp, err := env.svc.SubmitHRIS(context.Background(), actor, "", SubmitHRISRequest{Declared: true})
	assert.NoError(t, err)
	assert.Equal(t, HRISPendingApproval, resp.HRIS.Status)
	assert.True(t, resp.HRIS.IsDeclared)
	assert.NotNil(t, resp.HRIS.SubmittedAt)
	first := *resp.HRIS.SubmittedAt

	// Reviewer rejects; the owner fixes and resubmits. The profile returns
	// to the queue but keeps its original submission stamp.
	p := env.repo.profiles[actor.UserID]
	p.HRISStatus = HRISRejected
	reason := "incomplete identity proofs"
	p.RejectionReason = &reason

	resp, err = env.svc.SubmitHRIS(context.Background(), actor, "", SubmitHRISRequest{Declared: true})
	assert.NoError(t, err)
	assert.Equal(t, HRISPendingApproval, resp.HRIS.Status)
	assert.Nil(t, resp.HRIS.RejectionReason)
	assert.Equal(t, first, *resp.HRIS.SubmittedAt)
}

func TestSubmitHRIS_UndeclaredSaveKeepsDraft(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	resp, err := env.svc.SubmitHRIS(context.Background(), actor, "", SubmitHRISRequest{
		Sections: map[string]json.RawMessage{
			SectionEducation: json.RawMessage(`[{"degree":"BE"}]`),
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, HRISDraft, resp.HRIS.Status)
	assert.False(t, resp.HRIS.IsDeclared)
	assert.Nil(t, resp.HRIS.SubmittedAt)
	assert.JSONEq(t, `[{"degree":"BE"}]`, string(resp.Sections[SectionEducation]))
}

func TestDecideHRIS_PendingOnly(t *testing.T) {
	approver := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{capability: keys("dossier.approve")}, &fakeManagers{})
	owner := uuid.New()
	p := &Profile{ID: uuid.New(), CompanyID: uuid.MustParse(approver.CompanyID), UserID: owner, HRISStatus: HRISDraft}
	env.repo.profiles[owner.String()] = p

	_, err := env.svc.DecideHRIS(context.Background(), approver, p.ID.String(), DecisionRequest{Approved: true})
	assert.ErrorIs(t, err, dossiererrors.ErrNotPendingApproval)
}

func TestDecideHRIS_ApproveSetsReviewerAndEmitsEvent(t *testing.T) {
	approver := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{capability: keys("dossier.approve")}, &fakeManagers{})
	owner := uuid.New()
	p := &Profile{ID: uuid.New(), CompanyID: uuid.MustParse(approver.CompanyID), UserID: owner, HRISStatus: HRISPendingApproval}
	env.repo.profiles[owner.String()] = p

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	resp, err := env.svc.DecideHRIS(context.Background(), approver, p.ID.String(), DecisionRequest{Approved: true})

	assert.NoError(t, err)
	assert.Equal(t, HRISApproved, resp.HRIS.Status)
	assert.Equal(t, approver.UserID, *resp.HRIS.ReviewerID)
	assert.Len(t, env.outbox.created, 1)
	assert.Equal(t, "dossier_decided", env.outbox.created[0].EventType)
}

func TestDecideHRIS_ManagerEdgeNotHonored(t *testing.T) {
	approver := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	owner := uuid.New()
	mgrs := &fakeManagers{edges: map[string]bool{approver.UserID + ":" + owner.String(): true}}
	env := newTestEnv(t, &fakeResolver{}, mgrs)
	p := &Profile{ID: uuid.New(), CompanyID: uuid.MustParse(approver.CompanyID), UserID: owner, HRISStatus: HRISPendingApproval}
	env.repo.profiles[owner.String()] = p

	_, err := env.svc.DecideHRIS(context.Background(), approver, p.ID.String(), DecisionRequest{Approved: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dossier.approve")
}

func TestDecideHRIS_RejectRequiresReason(t *testing.T) {
	approver := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{capability: keys("dossier.approve")}, &fakeManagers{})
	owner := uuid.New()
	p := &Profile{ID: uuid.New(), CompanyID: uuid.MustParse(approver.CompanyID), UserID: owner, HRISStatus: HRISPendingApproval}
	env.repo.profiles[owner.String()] = p

	_, err := env.svc.DecideHRIS(context.Background(), approver, p.ID.String(), DecisionRequest{Approved: false})
	assert.ErrorIs(t, err, dossiererrors.ErrReasonRequired)
}

func TestDocuments_AddThenDelete(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	resp, err := env.svc.AddDocument(context.Background(), actor, "", AddDocumentRequest{
		Category: "Identity",
		Title:    "PAN card",
	}, "pan.pdf", bytes.NewBufferString("%PDF"))

	assert.NoError(t, err)
	assert.Len(t, resp.Documents, 1)
	assert.Equal(t, "Pending", resp.Documents[0].VerificationStatus)

	resp, err = env.svc.DeleteDocument(context.Background(), actor, "", resp.Documents[0].ID)
	assert.NoError(t, err)
	assert.Empty(t, resp.Documents)
	assert.Len(t, env.store.deleted, 1)
}

func TestDeleteDocument_BlobFailureDoesNotBlockRecord(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})
	env.store.deleteErr = errors.New("disk unplugged")

	resp, err := env.svc.AddDocument(context.Background(), actor, "", AddDocumentRequest{
		Category: "Identity",
		Title:    "Aadhaar",
	}, "aadhaar.pdf", bytes.NewBufferString("%PDF"))
	assert.NoError(t, err)

	resp, err = env.svc.DeleteDocument(context.Background(), actor, "", resp.Documents[0].ID)
	assert.NoError(t, err)
	assert.Empty(t, resp.Documents)
}

func TestDeleteDocument_UnknownIDRejected(t *testing.T) {
	actor := rbac.Principal{UserID: uuid.NewString(), CompanyID: uuid.NewString()}
	env := newTestEnv(t, &fakeResolver{}, &fakeManagers{})

	_, err := env.svc.AddDocument(context.Background(), actor, "", AddDocumentRequest{
		Category: "Identity",
		Title:    "PAN card",
	}, "pan.pdf", bytes.NewBufferString("%PDF"))
	assert.NoError(t, err)

	_, err = env.svc.DeleteDocument(context.Background(), actor, "", uuid.NewString())
	assert.ErrorIs(t, err, dossiererrors.ErrDocumentNotFound)
}
