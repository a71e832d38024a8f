package attendance

type ClockInRequest struct {
	Notes *string `json:"notes"`
}

type ClockOutRequest struct {
	Notes *string `json:"notes"`
}

type ManualEntryRequest struct {
	UserID   string  `json:"user_id"`
	Date     string  `json:"date" binding:"required"`
	ClockIn  string  `json:"clock_in" binding:"required"`
	ClockOut string  `json:"clock_out"`
	Notes    *string `json:"notes"`
}

type RegularizeRequest struct {
	ClockIn  *string `json:"clock_in"`
	ClockOut *string `json:"clock_out"`
	Notes    *string `json:"notes"`
}

type DecisionRequest struct {
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason"`
}

type AttendanceResponse struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	UserID          string  `json:"user_id"`
	Date            string  `json:"date"`
	ClockIn         *string `json:"clock_in,omitempty"`
	ClockOut        *string `json:"clock_out,omitempty"`
	Status          string  `json:"status"`
	IsManualEntry   bool    `json:"is_manual_entry"`
	IPAddress       *string `json:"ip_address,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ApprovalStatus  string  `json:"approval_status"`
	ApproverID      *string `json:"approver_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}
