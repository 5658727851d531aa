package user

import (
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
)

const (
	StatusActive     = "ACTIVE"
	StatusOnLeave    = "ON_LEAVE"
	StatusSuspended  = "SUSPENDED"
	StatusTerminated = "TERMINATED"
)

// User is an employee as seen by the leave engine.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	DepartmentID   *int64    `json:"department_id,omitempty"`
	DepartmentName string    `json:"department_name,omitempty"`
	ManagerID      *int64    `json:"manager_id,omitempty"`
	Manager        *User     `json:"manager,omitempty"`
	JoinedDate     time.Time `json:"joined_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SameDepartment is false when either side has no department.
func (u *User) SameDepartment(other *User) bool {
	if u == nil || other == nil || u.DepartmentID == nil || other.DepartmentID == nil {
		return false
	}
	return *u.DepartmentID == *other.DepartmentID
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
		DepartmentID: u.DepartmentID,
		ManagerID:    u.ManagerID,
		JoinedDate:   u.JoinedDate,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	if u == nil {
		return nil
	}
	out := &User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
		DepartmentID: u.DepartmentID,
		ManagerID:    u.ManagerID,
		JoinedDate:   u.JoinedDate,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Department != nil {
		out.DepartmentName = u.Department.Name
	}
	if u.Manager != nil {
		out.Manager = FromDataModel(u.Manager)
	}
	return out
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}

func DepartmentFromDataModel(d *userDatamodel.Department) *Department {
	return &Department{ID: d.ID, Name: d.Name}
}
