package leave

type UpsertConfigRequest struct {
	LeaveType            string  `json:"leave_type" binding:"required,oneof=CL SL EL LOP WFH"`
	Name                 string  `json:"name" binding:"required"`
	Description          string  `json:"description"`
	IsPaid               bool    `json:"is_paid"`
	AccrualType          string  `json:"accrual_type" binding:"required,oneof=Monthly Yearly None"`
	AccrualAmount        float64 `json:"accrual_amount" binding:"gte=0"`
	CarryForward         bool    `json:"carry_forward"`
	MaxCarryForward      float64 `json:"max_carry_forward" binding:"gte=0"`
	MaxLimitPerYear      float64 `json:"max_limit_per_year" binding:"gte=0"`
	SandwichRule         bool    `json:"sandwich_rule"`
	AllowNegativeBalance bool    `json:"allow_negative_balance"`
	AllowBackdated       bool    `json:"allow_backdated"`
	IsActive             *bool   `json:"is_active"`
}

type HolidayRequest struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type ApplyRequest struct {
	LeaveType      string  `json:"leave_type" binding:"required"`
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	IsHalfDay      bool    `json:"is_half_day"`
	HalfDaySession *string `json:"half_day_session" binding:"omitempty,oneof=FIRST_HALF SECOND_HALF"`
	Reason         string  `json:"reason" binding:"required"`
}

type DecisionRequest struct {
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason"`
}

type ConfigResponse struct {
	ID                   string  `json:"id"`
	LeaveType            string  `json:"leave_type"`
	Name                 string  `json:"name"`
	Description          string  `json:"description,omitempty"`
	IsPaid               bool    `json:"is_paid"`
	AccrualType          string  `json:"accrual_type"`
	AccrualAmount        float64 `json:"accrual_amount"`
	CarryForward         bool    `json:"carry_forward"`
	MaxCarryForward      float64 `json:"max_carry_forward"`
	MaxLimitPerYear      float64 `json:"max_limit_per_year"`
	SandwichRule         bool    `json:"sandwich_rule"`
	AllowNegativeBalance bool    `json:"allow_negative_balance"`
	AllowBackdated       bool    `json:"allow_backdated"`
	IsActive             bool    `json:"is_active"`
}

type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

type BalanceResponse struct {
	LeaveType string  `json:"leave_type"`
	Year      int     `json:"year"`
	Opening   float64 `json:"opening"`
	Accrued   float64 `json:"accrued"`
	Utilized  float64 `json:"utilized"`
	Encashed  float64 `json:"encashed"`
	Closing   float64 `json:"closing"`
	Available float64 `json:"available"`
}

type RequestResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	LeaveType       string  `json:"leave_type"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	IsHalfDay       bool    `json:"is_half_day"`
	HalfDaySession  *string `json:"half_day_session,omitempty"`
	DaysCount       float64 `json:"days_count"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	ApproverID      *string `json:"approver_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}
