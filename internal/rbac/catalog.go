package rbac

// CatalogEntry is one permission declared in code. The catalog is the source
// of truth for which keys exist; Sync reconciles it into the permissions
// table at startup.
type CatalogEntry struct {
	Key         string
	Module      string
	Description string
}

// WildcardKey expands to every non-deprecated catalog key at resolve time.
// Distinct from Role.IsSystem: a role holding "*" is still an ordinary
// permission holder, just with the full set.
const WildcardKey = "*"

// SensitiveViewKey gates whole-section dossier redaction.
const SensitiveViewKey = "dossier.view.sensitive"

// SensitiveEditKey is required to edit restricted dossier sections, even on
// one's own profile.
const SensitiveEditKey = "dossier.edit.sensitive"

func Catalog() []CatalogEntry {
	return []CatalogEntry{
		// USER MANAGEMENT
		{Key: "user.create", Module: "USER", Description: "Create new users"},
		{Key: "user.read", Module: "USER", Description: "View user details"},
		{Key: "user.update", Module: "USER", Description: "Update user details"},
		{Key: "user.delete", Module: "USER", Description: "Deactivate or delete users"},

		// ROLE MANAGEMENT
		{Key: "role.create", Module: "ROLE", Description: "Create new roles"},
		{Key: "role.read", Module: "ROLE", Description: "View roles and permissions"},
		{Key: "role.update", Module: "ROLE", Description: "Update roles and permissions"},

		// TIMESHEET
		{Key: "timesheet.submit", Module: "TIMESHEET", Description: "Submit own timesheets"},
		{Key: "timesheet.approve", Module: "TIMESHEET", Description: "Approve submitted timesheets"},
		{Key: "timesheet.export", Module: "TIMESHEET", Description: "Export timesheet reports"},

		// ATTENDANCE
		{Key: "attendance.clock_in", Module: "ATTENDANCE", Description: "Clock in and out"},
		{Key: "attendance.view", Module: "ATTENDANCE", Description: "View entire attendance tab and export"},
		{Key: "attendance.approve", Module: "ATTENDANCE", Description: "Approve manual attendance requests"},
		{Key: "attendance.export", Module: "ATTENDANCE", Description: "Export attendance reports"},
		{Key: "attendance.update_self", Module: "ATTENDANCE", Description: "Edit own attendance time (regularization)"},

		// LEAVE
		{Key: "leave.apply", Module: "LEAVE", Description: "Apply for leave"},
		{Key: "leave.approve", Module: "LEAVE", Description: "Approve or reject leave requests"},
		{Key: "leave.config", Module: "LEAVE", Description: "Manage leave policies, holidays and accrual runs"},

		// EMPLOYEE DOSSIER
		{Key: "dossier.view", Module: "DOSSIER", Description: "View employee dossiers"},
		{Key: "dossier.edit", Module: "DOSSIER", Description: "Edit employee dossiers"},
		{Key: SensitiveViewKey, Module: "DOSSIER", Description: "View sensitive dossier sections"},
		{Key: SensitiveEditKey, Module: "DOSSIER", Description: "Edit restricted dossier sections"},
		{Key: "dossier.approve", Module: "DOSSIER", Description: "Approve HRIS declarations"},

		// PROJECT MANAGEMENT
		{Key: "project.create", Module: "PROJECT", Description: "Create projects"},
		{Key: "project.read", Module: "PROJECT", Description: "View projects"},
		{Key: "project.update", Module: "PROJECT", Description: "Update projects"},
		{Key: "task.create", Module: "PROJECT", Description: "Create tasks"},
		{Key: "task.read", Module: "PROJECT", Description: "View tasks"},
		{Key: "task.update", Module: "PROJECT", Description: "Update tasks"},
	}
}
