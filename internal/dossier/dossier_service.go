package dossier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hrms/internal/audit"
	dossiererrors "hrms/internal/dossier/errors"
	"hrms/internal/events"
	"hrms/internal/filestore"
	"hrms/internal/messaging/kafka"
	"hrms/internal/rbac"
	"hrms/internal/shared/apperror"
	"hrms/internal/user"
)

// UserDirectory reads the user row a fresh profile is seeded from.
type UserDirectory interface {
	FindByID(ctx context.Context, companyID, id string) (*user.User, error)
}

//go:generate mockgen -source=dossier_service.go -destination=mock/dossier_service_mock.go -package=mock
type Service interface {
	Get(ctx context.Context, actor rbac.Principal, userID string) (ProfileResponse, error)
	UpdateSection(ctx context.Context, actor rbac.Principal, userID, section string, req UpdateSectionRequest) (ProfileResponse, error)
	SubmitHRIS(ctx context.Context, actor rbac.Principal, userID string, req SubmitHRISRequest) (ProfileResponse, error)
	DecideHRIS(ctx context.Context, actor rbac.Principal, profileID string, req DecisionRequest) (ProfileResponse, error)
	PendingApprovals(ctx context.Context, actor rbac.Principal) ([]ProfileResponse, error)
	AddDocument(ctx context.Context, actor rbac.Principal, userID string, req AddDocumentRequest, fileName string, file io.Reader) (ProfileResponse, error)
	DeleteDocument(ctx context.Context, actor rbac.Principal, userID, documentID string) (ProfileResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	users    UserDirectory
	resolver rbac.Resolver
	gate     *rbac.Gate
	files    filestore.Store
	recorder audit.Recorder
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users UserDirectory,
	resolver rbac.Resolver,
	gate *rbac.Gate,
	files filestore.Store,
	recorder audit.Recorder,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("dossier.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dossier.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		users:    users,
		resolver: resolver,
		gate:     gate,
		files:    files,
		recorder: recorder,
		outbox:   outbox,
		logger:   l,
	}
}

func (s *service) Get(ctx context.Context, actor rbac.Principal, userID string) (ProfileResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	isSelf := userID == actor.UserID
	if !isSelf {
		if err := s.gate.Can(ctx, actor, rbac.ActionDossierView, rbac.Target{UserID: userID}); err != nil {
			return ProfileResponse{}, err
		}
	}

	p, err := s.ensureProfile(ctx, actor.CompanyID, userID)
	if err != nil {
		return ProfileResponse{}, err
	}

	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return ProfileResponse{}, err
	}
	return FieldFilter(*p, capability, isSelf), nil
}

func (s *service) UpdateSection(ctx context.Context, actor rbac.Principal, userID, section string, req UpdateSectionRequest) (ProfileResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if !validSection(section) {
		return ProfileResponse{}, dossiererrors.ErrUnknownSection
	}
	if err := s.gate.Can(ctx, actor, rbac.EditDossierSection(section), rbac.Target{UserID: userID}); err != nil {
		return ProfileResponse{}, err
	}

	p, err := s.ensureProfile(ctx, actor.CompanyID, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	setSection(p, section, datatypes.JSON(req.Data))
	if err := s.repo.Update(ctx, p); err != nil {
		return ProfileResponse{}, err
	}

	s.record(ctx, actor, p, "dossier.section_updated", map[string]any{"section": section})
	return s.filtered(ctx, actor, p, userID)
}

// SubmitHRIS merges the posted sections and, when declared, routes the
// profile back to the approval queue. SubmittedAt and DeclarationDate are
// stamped on the first declared submission only; resubmissions keep them.
func (s *service) SubmitHRIS(ctx context.Context, actor rbac.Principal, userID string, req SubmitHRISRequest) (ProfileResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}

	for section := range req.Sections {
		if !validSection(section) {
			return ProfileResponse{}, dossiererrors.ErrUnknownSection
		}
		if err := s.gate.Can(ctx, actor, rbac.EditDossierSection(section), rbac.Target{UserID: userID}); err != nil {
			return ProfileResponse{}, err
		}
	}
	if len(req.Sections) == 0 {
		// Declaration-only submissions still need an edit grant on the
		// target profile.
		if err := s.gate.Can(ctx, actor, rbac.EditDossierSection(SectionPersonal), rbac.Target{UserID: userID}); err != nil {
			return ProfileResponse{}, err
		}
	}

	p, err := s.ensureProfile(ctx, actor.CompanyID, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	for section, data := range req.Sections {
		setSection(p, section, datatypes.JSON(data))
	}

	if req.Declared {
		now := time.Now().UTC()
		p.IsDeclared = true
		p.HRISStatus = HRISPendingApproval
		p.RejectionReason = nil
		if p.SubmittedAt == nil {
			p.SubmittedAt = &now
			p.DeclarationDate = &now
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return ProfileResponse{}, err
	}

	s.record(ctx, actor, p, "dossier.submitted", map[string]any{"declared": req.Declared})
	return s.filtered(ctx, actor, p, userID)
}

func (s *service) DecideHRIS(ctx context.Context, actor rbac.Principal, profileID string, req DecisionRequest) (ProfileResponse, error) {
	p, err := s.repo.FindByID(ctx, actor.CompanyID, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileResponse{}, dossiererrors.ErrNotFound
		}
		return ProfileResponse{}, err
	}

	if err := s.gate.Can(ctx, actor, rbac.ActionDossierApprove, rbac.Target{UserID: p.UserID.String()}); err != nil {
		return ProfileResponse{}, err
	}
	if p.HRISStatus != HRISPendingApproval {
		return ProfileResponse{}, dossiererrors.ErrNotPendingApproval
	}
	if !req.Approved && (req.Reason == nil || *req.Reason == "") {
		return ProfileResponse{}, dossiererrors.ErrReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ProfileResponse{}, err
	}
	defer tx.Rollback()

	reviewer := uuid.MustParse(actor.UserID)
	p.ReviewerID = &reviewer
	if req.Approved {
		p.HRISStatus = HRISApproved
		p.RejectionReason = nil
	} else {
		p.HRISStatus = HRISRejected
		p.RejectionReason = req.Reason
	}
	if err := s.repo.WithTx(tx).Update(ctx, p); err != nil {
		return ProfileResponse{}, err
	}

	event, err := kafka.NewOutboxEvent("hris_profile", p.ID.String(), "dossier_decided", events.DossierDecidedTopic, events.DossierDecidedEvent{
		EventType:  "dossier_decided",
		ProfileID:  p.ID.String(),
		CompanyID:  p.CompanyID.String(),
		UserID:     p.UserID.String(),
		Status:     p.HRISStatus,
		DecidedBy:  actor.UserID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return ProfileResponse{}, err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		return ProfileResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return ProfileResponse{}, err
	}

	s.record(ctx, actor, p, "dossier."+p.HRISStatus, map[string]any{"reason": req.Reason})
	return s.filtered(ctx, actor, p, p.UserID.String())
}

func (s *service) PendingApprovals(ctx context.Context, actor rbac.Principal) ([]ProfileResponse, error) {
	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !capability.IsSystemAdmin && !capability.Has(rbac.ActionDossierApprove.Key) {
		return nil, apperror.MissingPermission(rbac.ActionDossierApprove.Key)
	}

	rows, err := s.repo.FindPendingByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	res := make([]ProfileResponse, len(rows))
	for i, p := range rows {
		res[i] = FieldFilter(p, capability, false)
	}
	return res, nil
}

func (s *service) AddDocument(ctx context.Context, actor rbac.Principal, userID string, req AddDocumentRequest, fileName string, file io.Reader) (ProfileResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if err := s.gate.Can(ctx, actor, rbac.EditDossierSection(SectionPersonal), rbac.Target{UserID: userID}); err != nil {
		return ProfileResponse{}, err
	}

	p, err := s.ensureProfile(ctx, actor.CompanyID, userID)
	if err != nil {
		return ProfileResponse{}, err
	}

	url, err := s.files.Save(ctx, fileName, file)
	if err != nil {
		return ProfileResponse{}, err
	}

	doc := Document{
		ID:                 uuid.NewString(),
		Category:           req.Category,
		Title:              req.Title,
		FileName:           fileName,
		URL:                url,
		UploadDate:         time.Now().UTC().Format("2006-01-02"),
		ExpiryDate:         req.ExpiryDate,
		VerificationStatus: "Pending",
	}

	var docs []Document
	if len(p.Documents) > 0 {
		_ = json.Unmarshal(p.Documents, &docs)
	}
	docs = append(docs, doc)
	if err := setDocuments(p, docs); err != nil {
		return ProfileResponse{}, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return ProfileResponse{}, err
	}

	s.record(ctx, actor, p, "dossier.document_added", map[string]any{"document_id": doc.ID, "category": doc.Category})
	return s.filtered(ctx, actor, p, userID)
}

// DeleteDocument removes the record entry first; blob removal is best-effort
// and never blocks the mutation.
func (s *service) DeleteDocument(ctx context.Context, actor rbac.Principal, userID, documentID string) (ProfileResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if err := s.gate.Can(ctx, actor, rbac.EditDossierSection(SectionPersonal), rbac.Target{UserID: userID}); err != nil {
		return ProfileResponse{}, err
	}

	p, err := s.repo.FindByUser(ctx, actor.CompanyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileResponse{}, dossiererrors.ErrNotFound
		}
		return ProfileResponse{}, err
	}

	var docs []Document
	if len(p.Documents) > 0 {
		_ = json.Unmarshal(p.Documents, &docs)
	}
	var removed Document
	found := false
	kept := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == documentID {
			removed = doc
			found = true
			continue
		}
		kept = append(kept, doc)
	}
	if !found {
		return ProfileResponse{}, dossiererrors.ErrDocumentNotFound
	}

	if err := setDocuments(p, kept); err != nil {
		return ProfileResponse{}, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return ProfileResponse{}, err
	}

	if err := s.files.Delete(ctx, removed.URL); err != nil {
		s.logger.Warn("document blob removal failed",
			zap.String("url", removed.URL),
			zap.Error(err),
		)
	}

	s.record(ctx, actor, p, "dossier.document_deleted", map[string]any{"document_id": documentID})
	return s.filtered(ctx, actor, p, userID)
}

// ensureProfile lazily creates the row, seeding the personal section from
// the user record. The duplicate-key race is settled by re-reading.
func (s *service) ensureProfile(ctx context.Context, companyID, userID string) (*Profile, error) {
	p, err := s.repo.FindByUser(ctx, companyID, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	personal, _ := json.Marshal(map[string]string{
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"employeeCode": u.EmployeeCode,
	})
	p = &Profile{
		ID:         uuid.New(),
		CompanyID:  uuid.MustParse(companyID),
		UserID:     uuid.MustParse(userID),
		Personal:   personal,
		HRISStatus: HRISDraft,
	}
	if createErr := s.repo.Create(ctx, p); createErr != nil {
		if !isUniqueViolation(createErr) {
			return nil, createErr
		}
		return s.repo.FindByUser(ctx, companyID, userID)
	}
	return p, nil
}

func (s *service) filtered(ctx context.Context, actor rbac.Principal, p *Profile, userID string) (ProfileResponse, error) {
	capability, err := s.resolver.Resolve(ctx, actor)
	if err != nil {
		return ProfileResponse{}, err
	}
	return FieldFilter(*p, capability, userID == actor.UserID), nil
}

func (s *service) record(ctx context.Context, actor rbac.Principal, p *Profile, action string, details map[string]any) {
	body, _ := json.Marshal(details)
	performedBy := uuid.MustParse(actor.UserID)
	err := s.recorder.Record(ctx, audit.Entry{
		ID:          uuid.New(),
		CompanyID:   p.CompanyID,
		Action:      action,
		Module:      "DOSSIER",
		EntityID:    p.ID.String(),
		PerformedBy: &performedBy,
		Details:     body,
	})
	if err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func validSection(section string) bool {
	switch section {
	case SectionPersonal, SectionIdentity, SectionContact, SectionFamily,
		SectionEmployment, SectionCompensation, SectionEducation,
		SectionExperience, SectionSkills:
		return true
	}
	return false
}

func setSection(p *Profile, section string, data datatypes.JSON) {
	switch section {
	case SectionPersonal:
		p.Personal = data
	case SectionIdentity:
		p.Identity = data
	case SectionContact:
		p.Contact = data
	case SectionFamily:
		p.Family = data
	case SectionEmployment:
		p.Employment = data
	case SectionCompensation:
		p.Compensation = data
	case SectionEducation:
		p.Education = data
	case SectionExperience:
		p.Experience = data
	case SectionSkills:
		p.Skills = data
	}
}

func setDocuments(p *Profile, docs []Document) error {
	body, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	p.Documents = datatypes.JSON(body)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
