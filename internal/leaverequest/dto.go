package leaverequest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal/holiday"
	"github.com/frahmantamala/leave-management/internal/user"
)

type DocumentDTO struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Visible *bool  `json:"visible,omitempty"`
}

type SubmitLeaveRequestDTO struct {
	LeaveTypeID     int64         `json:"leave_type_id"`
	StartDate       string        `json:"start_date"`
	EndDate         string        `json:"end_date"`
	HalfDayStart    bool          `json:"half_day_start"`
	HalfDayEnd      bool          `json:"half_day_end"`
	Reason          *string       `json:"reason,omitempty"`
	PrimaryDocument *DocumentDTO  `json:"primary_document,omitempty"`
	Documents       []DocumentDTO `json:"documents,omitempty"`
}

// documents flattens the primary and additional attachments, dropping entries without a URL.
func (dto SubmitLeaveRequestDTO) documents() []Document {
	docs := make([]Document, 0, len(dto.Documents)+1)
	add := func(d DocumentDTO, primary bool) {
		if d.URL == "" {
			return
		}
		visible := true
		if d.Visible != nil {
			visible = *d.Visible
		}
		docs = append(docs, Document{Name: d.Name, URL: d.URL, Visible: visible, IsPrimary: primary})
	}
	if dto.PrimaryDocument != nil {
		add(*dto.PrimaryDocument, true)
	}
	for _, d := range dto.Documents {
		add(d, false)
	}
	return docs
}

type DecisionDTO struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

// Filter narrows listings; nil fields are ignored. From and To select
// requests overlapping the range.
type Filter struct {
	EmployeeID   *int64
	ManagerID    *int64
	DepartmentID *int64
	Status       *string
	From         *time.Time
	To           *time.Time
}

type LeaveRequestsResponse struct {
	LeaveRequests []*LeaveRequest `json:"leave_requests"`
}

type EmployeeLeave struct {
	LeaveRequestID int64           `json:"leave_request_id"`
	EmployeeID     int64           `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	DepartmentName string          `json:"department_name,omitempty"`
	LeaveTypeName  string          `json:"leave_type_name"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	HalfDayStart   bool            `json:"half_day_start"`
	HalfDayEnd     bool            `json:"half_day_end"`
	WorkingDays    decimal.Decimal `json:"working_days"`
}

type DepartmentLeaveCount struct {
	DepartmentID     int64  `json:"department_id" db:"department_id"`
	DepartmentName   string `json:"department_name" db:"department_name"`
	EmployeesOnLeave int    `json:"employees_on_leave" db:"employees_on_leave"`
	Requests         int    `json:"requests" db:"request_count"`
}

type CompanyCalendar struct {
	Year           int                      `json:"year"`
	Month          *int                     `json:"month,omitempty"`
	From           time.Time                `json:"from"`
	To             time.Time                `json:"to"`
	EmployeeLeaves []*EmployeeLeave         `json:"employee_leaves"`
	PublicHolidays []*holiday.PublicHoliday `json:"public_holidays"`
	Departments    []*user.Department       `json:"departments"`
	LeaveCounts    []*DepartmentLeaveCount  `json:"leave_counts"`
}
