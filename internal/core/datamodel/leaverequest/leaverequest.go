package leaverequest

import (
	"time"

	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
)

type LeaveRequest struct {
	ID              int64                        `gorm:"primaryKey"`
	EmployeeID      int64                        `gorm:"column:employee_id;not null;index"`
	LeaveTypeID     int64                        `gorm:"column:leave_type_id;not null"`
	StartDate       time.Time                    `gorm:"column:start_date;type:date;not null"`
	EndDate         time.Time                    `gorm:"column:end_date;type:date;not null"`
	HalfDayStart    bool                         `gorm:"column:half_day_start;not null;default:false"`
	HalfDayEnd      bool                         `gorm:"column:half_day_end;not null;default:false"`
	Status          string                       `gorm:"column:status;not null;default:PENDING;index"`
	Reason          *string                      `gorm:"column:reason"`
	RejectionReason *string                      `gorm:"column:rejection_reason"`
	ManagerID       *int64                       `gorm:"column:manager_id;index"`
	ApprovedAt      *time.Time                   `gorm:"column:approved_at"`
	Documents       []LeaveDocument              `gorm:"foreignKey:LeaveRequestID"`
	Employee        userDatamodel.User           `gorm:"foreignKey:EmployeeID"`
	LeaveType       leavetypeDatamodel.LeaveType `gorm:"foreignKey:LeaveTypeID"`
	Manager         *userDatamodel.User          `gorm:"foreignKey:ManagerID"`
	CreatedAt       time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

type LeaveDocument struct {
	ID             int64     `gorm:"primaryKey"`
	LeaveRequestID int64     `gorm:"column:leave_request_id;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	URL            string    `gorm:"column:url;not null"`
	Visible        bool      `gorm:"column:visible;not null"`
	IsPrimary      bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LeaveDocument) TableName() string {
	return "leave_request_documents"
}
