package leaverequest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/period"
	leaverequestDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leaverequest"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

var halfDay = decimal.RequireFromString("0.5")

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type Document struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Visible   bool   `json:"visible"`
	IsPrimary bool   `json:"is_primary"`
}

type LeaveRequest struct {
	ID              int64           `json:"id"`
	EmployeeID      int64           `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	EmployeeEmail   string          `json:"-"`
	DepartmentID    *int64          `json:"department_id,omitempty"`
	DepartmentName  string          `json:"department_name,omitempty"`
	LeaveTypeID     int64           `json:"leave_type_id"`
	LeaveTypeName   string          `json:"leave_type_name,omitempty"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	HalfDayStart    bool            `json:"half_day_start"`
	HalfDayEnd      bool            `json:"half_day_end"`
	Duration        decimal.Decimal `json:"duration"`
	WorkingDays     decimal.Decimal `json:"working_days"`
	Status          string          `json:"status"`
	Reason          *string         `json:"reason,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	ManagerID       *int64          `json:"manager_id,omitempty"`
	ManagerEmail    string          `json:"-"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	Documents       []Document      `json:"documents"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SubmissionDuration counts calendar days, weekends included, and takes half
// a day off for each half-day flag. It is the figure checked against a leave
// type's maximum duration.
func SubmissionDuration(start, end time.Time, halfDayStart, halfDayEnd bool) decimal.Decimal {
	days := decimal.NewFromInt(period.DaysInclusive(start, end))
	if halfDayStart {
		days = days.Sub(halfDay)
	}
	if halfDayEnd {
		days = days.Sub(halfDay)
	}
	return days
}

// WorkingDays counts Monday to Friday only. A half-day flag counts only when
// its boundary day is itself a weekday.
func WorkingDays(start, end time.Time, halfDayStart, halfDayEnd bool) decimal.Decimal {
	start, end = clock.DateOf(start), clock.DateOf(end)
	var weekdays int64
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !period.IsWeekend(day) {
			weekdays++
		}
	}
	days := decimal.NewFromInt(weekdays)
	if halfDayStart && !period.IsWeekend(start) {
		days = days.Sub(halfDay)
	}
	if halfDayEnd && !period.IsWeekend(end) {
		days = days.Sub(halfDay)
	}
	if days.IsNegative() {
		return decimal.Zero
	}
	return days
}

func (r *LeaveRequest) SubmissionDuration() decimal.Decimal {
	return SubmissionDuration(r.StartDate, r.EndDate, r.HalfDayStart, r.HalfDayEnd)
}

func (r *LeaveRequest) WorkingDayCount() decimal.Decimal {
	return WorkingDays(r.StartDate, r.EndDate, r.HalfDayStart, r.HalfDayEnd)
}

func (r *LeaveRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *LeaveRequest) transition(to string) error {
	if !r.IsPending() {
		return internal.NewStateError("only pending leave requests can be "+strings.ToLower(to)+", current status is "+r.Status,
			internal.ErrCodeInvalidRequestStatus)
	}
	r.Status = to
	return nil
}

// Decide applies an approval or rejection by approverID. The approver becomes
// the request's manager.
func (r *LeaveRequest) Decide(status string, rejectionReason *string, approverID int64, now time.Time) error {
	if err := r.transition(status); err != nil {
		return err
	}
	r.ManagerID = &approverID
	r.ApprovedAt = &now
	if status == StatusRejected {
		r.RejectionReason = rejectionReason
	}
	return nil
}

func (r *LeaveRequest) Cancel() error {
	return r.transition(StatusCancelled)
}

func ToDataModel(r *LeaveRequest) *leaverequestDatamodel.LeaveRequest {
	documents := make([]leaverequestDatamodel.LeaveDocument, len(r.Documents))
	for i, d := range r.Documents {
		documents[i] = leaverequestDatamodel.LeaveDocument{
			ID:             d.ID,
			LeaveRequestID: r.ID,
			Name:           d.Name,
			URL:            d.URL,
			Visible:        d.Visible,
			IsPrimary:      d.IsPrimary,
		}
	}
	return &leaverequestDatamodel.LeaveRequest{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		LeaveTypeID:     r.LeaveTypeID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		HalfDayStart:    r.HalfDayStart,
		HalfDayEnd:      r.HalfDayEnd,
		Status:          r.Status,
		Reason:          r.Reason,
		RejectionReason: r.RejectionReason,
		ManagerID:       r.ManagerID,
		ApprovedAt:      r.ApprovedAt,
		Documents:       documents,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func FromDataModel(m *leaverequestDatamodel.LeaveRequest) *LeaveRequest {
	if m == nil {
		return nil
	}
	r := &LeaveRequest{
		ID:              m.ID,
		EmployeeID:      m.EmployeeID,
		LeaveTypeID:     m.LeaveTypeID,
		StartDate:       clock.DateOf(m.StartDate),
		EndDate:         clock.DateOf(m.EndDate),
		HalfDayStart:    m.HalfDayStart,
		HalfDayEnd:      m.HalfDayEnd,
		Status:          m.Status,
		Reason:          m.Reason,
		RejectionReason: m.RejectionReason,
		ManagerID:       m.ManagerID,
		ApprovedAt:      m.ApprovedAt,
		Documents:       make([]Document, len(m.Documents)),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for i, d := range m.Documents {
		r.Documents[i] = Document{ID: d.ID, Name: d.Name, URL: d.URL, Visible: d.Visible, IsPrimary: d.IsPrimary}
	}
	if m.Employee.ID != 0 {
		r.EmployeeName = strings.TrimSpace(m.Employee.FirstName + " " + m.Employee.LastName)
		r.EmployeeEmail = m.Employee.Email
		r.DepartmentID = m.Employee.DepartmentID
		if m.Employee.Department != nil {
			r.DepartmentName = m.Employee.Department.Name
		}
	}
	r.LeaveTypeName = m.LeaveType.Name
	if m.Manager != nil {
		r.ManagerEmail = m.Manager.Email
	}
	r.Duration = r.SubmissionDuration()
	r.WorkingDays = r.WorkingDayCount()
	return r
}

func FromDataModelSlice(models []*leaverequestDatamodel.LeaveRequest) []*LeaveRequest {
	result := make([]*LeaveRequest, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
