package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hrms/internal/events"
	leaveerrors "hrms/internal/leave/errors"
	"hrms/internal/messaging/kafka"
	"hrms/internal/rbac"
	"hrms/internal/shared/apperror"
	"hrms/internal/shared/orgclock"
)

// UserDirectory answers reporting-line listing for approval queues.
type UserDirectory interface {
	SubordinateIDs(ctx context.Context, managerID string) ([]string, error)
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	UpsertConfig(ctx context.Context, req UpsertConfigRequest) (ConfigResponse, error)
	ListConfigs(ctx context.Context) ([]ConfigResponse, error)

	AddHoliday(ctx context.Context, companyID string, req HolidayRequest) (HolidayResponse, error)
	ListHolidays(ctx context.Context, companyID string) ([]HolidayResponse, error)
	DeleteHoliday(ctx context.Context, companyID, id string) error

	Apply(ctx context.Context, actor rbac.Principal, req ApplyRequest) (RequestResponse, error)
	MyLeaves(ctx context.Context, actor rbac.Principal) ([]RequestResponse, error)
	MyBalances(ctx context.Context, actor rbac.Principal, year int) ([]BalanceResponse, error)
	ManagerApprovals(ctx context.Context, actor rbac.Principal) ([]RequestResponse, error)
	Decide(ctx context.Context, actor rbac.Principal, requestID string, req DecisionRequest) (RequestResponse, error)
	Cancel(ctx context.Context, actor rbac.Principal, requestID string) (RequestResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	users  UserDirectory
	gate   *rbac.Gate
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users UserDirectory,
	gate *rbac.Gate,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, users: users, gate: gate, outbox: outbox, logger: l}
}

func (s *service) UpsertConfig(ctx context.Context, req UpsertConfigRequest) (ConfigResponse, error) {
	existing, err := s.repo.FindConfigByType(ctx, req.LeaveType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ConfigResponse{}, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c := &Config{
			ID:                   uuid.New(),
			LeaveType:            req.LeaveType,
			Name:                 req.Name,
			Description:          req.Description,
			IsPaid:               req.IsPaid,
			AccrualType:          req.AccrualType,
			AccrualAmount:        req.AccrualAmount,
			CarryForward:         req.CarryForward,
			MaxCarryForward:      req.MaxCarryForward,
			MaxLimitPerYear:      req.MaxLimitPerYear,
			SandwichRule:         req.SandwichRule,
			AllowNegativeBalance: req.AllowNegativeBalance,
			AllowBackdated:       req.AllowBackdated,
			IsActive:             true,
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}
		if createErr := s.repo.CreateConfig(ctx, c); createErr != nil {
			if isUniqueViolation(createErr) {
				return ConfigResponse{}, leaveerrors.ErrPolicyTypeTaken
			}
			return ConfigResponse{}, createErr
		}
		return mapConfig(*c), nil
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.IsPaid = req.IsPaid
	existing.AccrualType = req.AccrualType
	existing.AccrualAmount = req.AccrualAmount
	existing.CarryForward = req.CarryForward
	existing.MaxCarryForward = req.MaxCarryForward
	existing.MaxLimitPerYear = req.MaxLimitPerYear
	existing.SandwichRule = req.SandwichRule
	existing.AllowNegativeBalance = req.AllowNegativeBalance
	existing.AllowBackdated = req.AllowBackdated
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateConfig(ctx, existing); err != nil {
		return ConfigResponse{}, err
	}
	return mapConfig(*existing), nil
}

func (s *service) ListConfigs(ctx context.Context) ([]ConfigResponse, error) {
	rows, err := s.repo.FindAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]ConfigResponse, len(rows))
	for i, c := range rows {
		res[i] = mapConfig(c)
	}
	return res, nil
}

func (s *service) AddHoliday(ctx context.Context, companyID string, req HolidayRequest) (HolidayResponse, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, orgclock.Location())
	if err != nil {
		return HolidayResponse{}, apperror.InvalidField("date")
	}

	h := &Holiday{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		Date:      orgclock.DayOf(date),
		Name:      req.Name,
	}
	if err := s.repo.CreateHoliday(ctx, h); err != nil {
		if isUniqueViolation(err) {
			return HolidayResponse{}, apperror.New(apperror.CodeConflict, "a holiday already exists on this date", 409)
		}
		return HolidayResponse{}, err
	}
	return mapHoliday(*h), nil
}

func (s *service) ListHolidays(ctx context.Context, companyID string) ([]HolidayResponse, error) {
	rows, err := s.repo.FindAllHolidays(ctx, companyID)
	if err != nil {
		return nil, err
	}
	res := make([]HolidayResponse, len(rows))
	for i, h := range rows {
		res[i] = mapHoliday(h)
	}
	return res, nil
}

func (s *service) DeleteHoliday(ctx context.Context, companyID, id string) error {
	return s.repo.DeleteHoliday(ctx, companyID, id)
}

func (s *service) Apply(ctx context.Context, actor rbac.Principal, req ApplyRequest) (RequestResponse, error) {
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, orgclock.Location())
	if err != nil {
		return RequestResponse{}, apperror.InvalidField("start_date")
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, orgclock.Location())
	if err != nil {
		return RequestResponse{}, apperror.InvalidField("end_date")
	}
	start = orgclock.DayOf(start)
	end = orgclock.DayOf(end)
	if end.Before(start) {
		return RequestResponse{}, leaveerrors.ErrInvalidRange
	}

	cfg, err := s.repo.FindConfigByType(ctx, req.LeaveType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaveerrors.ErrPolicyNotFound
		}
		return RequestResponse{}, err
	}
	if !cfg.IsActive {
		return RequestResponse{}, leaveerrors.ErrPolicyInactive
	}

	today := orgclock.DayOf(time.Now().In(orgclock.Location()))
	if start.Before(today) && !cfg.AllowBackdated {
		return RequestResponse{}, leaveerrors.ErrBackdatedNotAllowed
	}

	var days float64
	if req.IsHalfDay {
		if !start.Equal(end) {
			return RequestResponse{}, leaveerrors.ErrHalfDaySingleDate
		}
		days = 0.5
	} else {
		holidays, err := s.repo.FindHolidaysInRange(ctx, actor.CompanyID, start, end)
		if err != nil {
			return RequestResponse{}, err
		}
		days = CalculateDays(start, end, *cfg, holidays)
	}
	if days <= 0 {
		return RequestResponse{}, leaveerrors.ErrZeroDays
	}

	bal, err := s.ensureBalance(ctx, actor.CompanyID, actor.UserID, cfg.LeaveType, start.Year())
	if err != nil {
		return RequestResponse{}, err
	}
	if days > bal.Available() && !cfg.AllowNegativeBalance {
		return RequestResponse{}, leaveerrors.ErrInsufficientBalance
	}

	r := &Request{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(actor.CompanyID),
		UserID:         uuid.MustParse(actor.UserID),
		LeaveType:      cfg.LeaveType,
		StartDate:      start,
		EndDate:        end,
		IsHalfDay:      req.IsHalfDay,
		HalfDaySession: req.HalfDaySession,
		DaysCount:      days,
		Reason:         req.Reason,
		Status:         StatusPending,
	}
	appendTrail(r, "applied", actor.UserID, "")

	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return RequestResponse{}, err
	}
	return mapRequest(*r), nil
}

func (s *service) MyLeaves(ctx context.Context, actor rbac.Principal) ([]RequestResponse, error) {
	rows, err := s.repo.FindRequestsByUser(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	res := make([]RequestResponse, len(rows))
	for i, r := range rows {
		res[i] = mapRequest(r)
	}
	return res, nil
}

// MyBalances reports one row per active policy. Types the user has never
// touched appear as zero-value virtual balances rather than being absent.
func (s *service) MyBalances(ctx context.Context, actor rbac.Principal, year int) ([]BalanceResponse, error) {
	if year == 0 {
		year = time.Now().In(orgclock.Location()).Year()
	}
	configs, err := s.repo.FindActiveConfigs(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.FindBalancesByUserYear(ctx, actor.UserID, year)
	if err != nil {
		return nil, err
	}
	byType := make(map[string]Balance, len(stored))
	for _, b := range stored {
		byType[b.LeaveType] = b
	}

	res := make([]BalanceResponse, 0, len(configs))
	for _, cfg := range configs {
		b, ok := byType[cfg.LeaveType]
		if !ok {
			b = Balance{LeaveType: cfg.LeaveType, Year: year}
		}
		res = append(res, mapBalance(b))
	}
	return res, nil
}

func (s *service) ManagerApprovals(ctx context.Context, actor rbac.Principal) ([]RequestResponse, error) {
	ids, err := s.users.SubordinateIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindPendingByUsers(ctx, actor.CompanyID, ids)
	if err != nil {
		return nil, err
	}
	res := make([]RequestResponse, len(rows))
	for i, r := range rows {
		res[i] = mapRequest(r)
	}
	return res, nil
}

func (s *service) Decide(ctx context.Context, actor rbac.Principal, requestID string, req DecisionRequest) (RequestResponse, error) {
	r, err := s.repo.FindRequestByID(ctx, actor.CompanyID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}

	if err := s.gate.Can(ctx, actor, rbac.ActionLeaveApprove, rbac.Target{UserID: r.UserID.String()}); err != nil {
		return RequestResponse{}, err
	}
	if r.Status != StatusPending {
		return RequestResponse{}, leaveerrors.ErrAlreadyDecided
	}
	if !req.Approved && (req.Reason == nil || *req.Reason == "") {
		return RequestResponse{}, leaveerrors.ErrReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RequestResponse{}, err
	}
	defer tx.Rollback()
	qtx := s.repo.WithTx(tx)

	now := time.Now().UTC()
	approver := uuid.MustParse(actor.UserID)
	r.ApproverID = &approver
	r.DecidedAt = &now

	if req.Approved {
		// Balance may have shrunk since apply; the race between a cheap
		// apply-time check and approval closes here, inside the decision
		// transaction.
		cfg, err := s.repo.FindConfigByType(ctx, r.LeaveType)
		if err != nil {
			return RequestResponse{}, err
		}
		bal, err := s.ensureBalanceTx(ctx, qtx, r.CompanyID.String(), r.UserID.String(), r.LeaveType, r.StartDate.Year())
		if err != nil {
			return RequestResponse{}, err
		}
		if r.DaysCount > bal.Available() && !cfg.AllowNegativeBalance {
			return RequestResponse{}, leaveerrors.ErrInsufficientBalance
		}
		bal.Utilized += r.DaysCount
		if err := qtx.UpdateBalance(ctx, bal); err != nil {
			return RequestResponse{}, err
		}
		r.Status = StatusApproved
		appendTrail(r, "approved", actor.UserID, "")
	} else {
		r.Status = StatusRejected
		r.RejectionReason = req.Reason
		appendTrail(r, "rejected", actor.UserID, *req.Reason)
	}

	if err := qtx.UpdateRequest(ctx, r); err != nil {
		return RequestResponse{}, err
	}

	event, err := kafka.NewOutboxEvent("leave_request", r.ID.String(), "leave_decided", events.LeaveDecidedTopic, events.LeaveDecidedEvent{
		EventType:  "leave_decided",
		RequestID:  r.ID.String(),
		CompanyID:  r.CompanyID.String(),
		UserID:     r.UserID.String(),
		LeaveType:  r.LeaveType,
		Status:     r.Status,
		DaysCount:  r.DaysCount,
		DecidedBy:  actor.UserID,
		OccurredAt: now,
	})
	if err != nil {
		return RequestResponse{}, err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		return RequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return RequestResponse{}, err
	}
	return mapRequest(*r), nil
}

func (s *service) Cancel(ctx context.Context, actor rbac.Principal, requestID string) (RequestResponse, error) {
	r, err := s.repo.FindRequestByID(ctx, actor.CompanyID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	if r.UserID.String() != actor.UserID {
		return RequestResponse{}, leaveerrors.ErrNotOwner
	}
	if r.Status != StatusPending {
		return RequestResponse{}, leaveerrors.ErrAlreadyDecided
	}

	r.Status = StatusCancelled
	appendTrail(r, "cancelled", actor.UserID, "")
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return RequestResponse{}, err
	}
	return mapRequest(*r), nil
}

func (s *service) ensureBalance(ctx context.Context, companyID, userID, leaveType string, year int) (*Balance, error) {
	return s.ensureBalanceTx(ctx, s.repo, companyID, userID, leaveType, year)
}

// ensureBalanceTx lazily creates the (user, type, year) row, tolerating the
// duplicate-key race by re-reading.
func (s *service) ensureBalanceTx(ctx context.Context, repo Repository, companyID, userID, leaveType string, year int) (*Balance, error) {
	b, err := repo.FindBalance(ctx, userID, leaveType, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b = &Balance{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		UserID:    uuid.MustParse(userID),
		LeaveType: leaveType,
		Year:      year,
	}
	if createErr := repo.CreateBalance(ctx, b); createErr != nil {
		if !isUniqueViolation(createErr) {
			return nil, createErr
		}
		return repo.FindBalance(ctx, userID, leaveType, year)
	}
	return b, nil
}

type trailEntry struct {
	Action string    `json:"action"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

func appendTrail(r *Request, action, by, note string) {
	var trail []trailEntry
	if len(r.AuditTrail) > 0 {
		_ = json.Unmarshal(r.AuditTrail, &trail)
	}
	trail = append(trail, trailEntry{Action: action, By: by, At: time.Now().UTC(), Note: note})
	if body, err := json.Marshal(trail); err == nil {
		r.AuditTrail = datatypes.JSON(body)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapConfig(c Config) ConfigResponse {
	return ConfigResponse{
		ID:                   c.ID.String(),
		LeaveType:            c.LeaveType,
		Name:                 c.Name,
		Description:          c.Description,
		IsPaid:               c.IsPaid,
		AccrualType:          c.AccrualType,
		AccrualAmount:        c.AccrualAmount,
		CarryForward:         c.CarryForward,
		MaxCarryForward:      c.MaxCarryForward,
		MaxLimitPerYear:      c.MaxLimitPerYear,
		SandwichRule:         c.SandwichRule,
		AllowNegativeBalance: c.AllowNegativeBalance,
		AllowBackdated:       c.AllowBackdated,
		IsActive:             c.IsActive,
	}
}

func mapHoliday(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:   h.ID.String(),
		Date: h.Date.Format("2006-01-02"),
		Name: h.Name,
	}
}

func mapBalance(b Balance) BalanceResponse {
	return BalanceResponse{
		LeaveType: b.LeaveType,
		Year:      b.Year,
		Opening:   b.Opening,
		Accrued:   b.Accrued,
		Utilized:  b.Utilized,
		Encashed:  b.Encashed,
		Closing:   b.Closing(),
		Available: b.Available(),
	}
}

func mapRequest(r Request) RequestResponse {
	resp := RequestResponse{
		ID:              r.ID.String(),
		UserID:          r.UserID.String(),
		LeaveType:       r.LeaveType,
		StartDate:       r.StartDate.Format("2006-01-02"),
		EndDate:         r.EndDate.Format("2006-01-02"),
		IsHalfDay:       r.IsHalfDay,
		HalfDaySession:  r.HalfDaySession,
		DaysCount:       r.DaysCount,
		Reason:          r.Reason,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
	}
	if r.ApproverID != nil {
		v := r.ApproverID.String()
		resp.ApproverID = &v
	}
	return resp
}
