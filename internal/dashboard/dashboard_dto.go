package dashboard

import "time"

type Stats struct {
	TotalEmployees  int   `json:"total_employees"`
	PresentToday    int   `json:"present_today"`
	AbsentToday     int   `json:"absent_today"`
	PendingRequests int64 `json:"pending_requests"`
}

// DailyStatus is one row of the who-is-in-today list. Status is the
// attendance status, or ABSENT when no record exists for the day.
type DailyStatus struct {
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	EmployeeCode string     `json:"employee_code"`
	Department   string     `json:"department,omitempty"`
	Status       string     `json:"status"`
	ClockIn      *time.Time `json:"clock_in,omitempty"`
}

type ProjectSnapshot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type OverviewResponse struct {
	Stats    Stats             `json:"stats"`
	Today    []DailyStatus     `json:"today"`
	Projects []ProjectSnapshot `json:"projects"`
}
