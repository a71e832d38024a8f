package timesheet

type LogWorkRequest struct {
	TaskID      string  `json:"task_id" binding:"required,uuid"`
	Date        string  `json:"date" binding:"required"`
	Hours       float64 `json:"hours" binding:"required,gt=0,lte=24"`
	Description string  `json:"description"`
}

type UpdateEntryRequest struct {
	Hours       *float64 `json:"hours" binding:"omitempty,gt=0,lte=24"`
	Description *string  `json:"description"`
}

type DecisionRequest struct {
	Approved bool     `json:"approved"`
	Reason   *string  `json:"reason"`
	EntryIDs []string `json:"entry_ids"`
}

type WorkLogResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	TaskID          string  `json:"task_id"`
	TaskName        string  `json:"task_name,omitempty"`
	ProjectName     string  `json:"project_name,omitempty"`
	Date            string  `json:"date"`
	Hours           float64 `json:"hours"`
	Description     string  `json:"description,omitempty"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type TimesheetResponse struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	UserID          string  `json:"user_id"`
	Month           string  `json:"month"`
	Status          string  `json:"status"`
	SubmittedAt     *string `json:"submitted_at,omitempty"`
	ApproverID      *string `json:"approver_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

// AttendanceDay is the read-only attendance slice shown next to a month's
// work logs.
type AttendanceDay struct {
	Date     string  `json:"date"`
	ClockIn  *string `json:"clock_in,omitempty"`
	ClockOut *string `json:"clock_out,omitempty"`
	Status   string  `json:"status"`
}

type TimesheetDetailResponse struct {
	Timesheet  TimesheetResponse `json:"timesheet"`
	Entries    []WorkLogResponse `json:"entries"`
	TotalHours float64           `json:"total_hours"`
	Attendance []AttendanceDay   `json:"attendance"`
}
