package rbac

import (
	"context"

	"go.uber.org/zap"

	"hrms/internal/shared/apperror"
)

// Family is an action family for gate configuration. The manager-relationship
// fallback is a per-family bit because policy differs between flows: it is
// honored for attendance/timesheet/leave approval and deliberately switched
// off for HRIS dossier approval.
type Family string

const (
	FamilyAttendance Family = "attendance"
	FamilyTimesheet  Family = "timesheet"
	FamilyLeave      Family = "leave"
	FamilyDossier    Family = "dossier"
)

// Action describes what a caller is trying to do, in gate terms.
type Action struct {
	// Key is the permission key that grants the action outright.
	Key string
	// Family selects the manager-bypass configuration bit.
	Family Family
	// Approval marks approval-type actions, the only ones eligible for the
	// manager fallback.
	Approval bool
	// SelfService marks actions a user may perform on their own records.
	SelfService bool
	// Section is set for dossier section edits; restricted sections need an
	// explicit permission even when self-editing.
	Section string
}

// Target identifies whose record the action touches.
type Target struct {
	UserID string
}

var (
	ActionAttendanceApprove = Action{Key: "attendance.approve", Family: FamilyAttendance, Approval: true}
	ActionAttendanceView    = Action{Key: "attendance.view", Family: FamilyAttendance, Approval: true, SelfService: true}
	ActionTimesheetView     = Action{Key: "timesheet.approve", Family: FamilyTimesheet, Approval: true, SelfService: true}
	ActionTimesheetApprove  = Action{Key: "timesheet.approve", Family: FamilyTimesheet, Approval: true}
	ActionLeaveApprove      = Action{Key: "leave.approve", Family: FamilyLeave, Approval: true}
	ActionDossierView       = Action{Key: "dossier.view", Family: FamilyDossier, SelfService: true}
	// The manager edge is NOT honored for HRIS approval: Approval is left
	// false so only dossier.approve or a system role passes.
	ActionDossierApprove = Action{Key: "dossier.approve", Family: FamilyDossier}
)

// EditDossierSection builds the action for editing one dossier section.
func EditDossierSection(section string) Action {
	return Action{Key: "dossier.edit", Family: FamilyDossier, SelfService: true, Section: section}
}

// ManagerDirectory answers reporting-line questions. A user may report to
// multiple managers; any edge counts.
type ManagerDirectory interface {
	IsManagerOf(ctx context.Context, managerID, userID string) (bool, error)
}

type GateConfig struct {
	// ManagerBypass switches the manager fallback per action family.
	ManagerBypass map[Family]bool
	// RestrictedSelfSections are dossier sections a user cannot edit on
	// their own profile without SensitiveEditKey.
	RestrictedSelfSections map[string]bool
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		ManagerBypass: map[Family]bool{
			FamilyAttendance: true,
			FamilyTimesheet:  true,
			FamilyLeave:      true,
			FamilyDossier:    false,
		},
		RestrictedSelfSections: map[string]bool{
			"employment":   true,
			"compensation": true,
			"identity":     true,
		},
	}
}

// Gate decides allow/deny for an action. It is pure: no side effects, every
// denial names the permission key that would have allowed the action.
type Gate struct {
	resolver Resolver
	managers ManagerDirectory
	cfg      GateConfig
	logger   *zap.Logger
}

func NewGate(resolver Resolver, managers ManagerDirectory, cfg GateConfig, logger ...*zap.Logger) *Gate {
	l := zap.L().Named("rbac.gate")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.gate")
	}
	return &Gate{resolver: resolver, managers: managers, cfg: cfg, logger: l}
}

// Can evaluates the decision order: system admin, ownership, manager edge,
// permission key, deny. First match wins.
func (g *Gate) Can(ctx context.Context, p Principal, action Action, target Target) error {
	capability, err := g.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}

	if capability.IsSystemAdmin {
		return nil
	}

	if action.SelfService && target.UserID != "" && p.UserID == target.UserID {
		if action.Section != "" && g.cfg.RestrictedSelfSections[action.Section] {
			if capability.Has(SensitiveEditKey) {
				return nil
			}
			g.logger.Debug("self edit of restricted section denied",
				zap.String("user_id", p.UserID),
				zap.String("section", action.Section),
			)
			return apperror.MissingPermission(SensitiveEditKey)
		}
		return nil
	}

	if action.Approval && g.cfg.ManagerBypass[action.Family] && target.UserID != "" {
		isManager, err := g.managers.IsManagerOf(ctx, p.UserID, target.UserID)
		if err != nil {
			return err
		}
		if isManager {
			return nil
		}
	}

	if capability.Has(action.Key) {
		return nil
	}

	g.logger.Debug("action denied",
		zap.String("user_id", p.UserID),
		zap.String("target_user_id", target.UserID),
		zap.String("permission", action.Key),
		zap.String("family", string(action.Family)),
	)
	return apperror.MissingPermission(action.Key)
}
