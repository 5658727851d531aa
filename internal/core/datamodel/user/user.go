package user

import "time"

type Department struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Department) TableName() string {
	return "departments"
}

type User struct {
	ID           int64       `gorm:"primaryKey"`
	Email        string      `gorm:"column:email;uniqueIndex;not null"`
	FirstName    string      `gorm:"column:first_name;not null"`
	LastName     string      `gorm:"column:last_name;not null"`
	PasswordHash string      `gorm:"column:password_hash;not null"`
	Role         string      `gorm:"column:role;not null;default:EMPLOYEE"`
	Status       string      `gorm:"column:status;not null;default:ACTIVE"`
	DepartmentID *int64      `gorm:"column:department_id"`
	ManagerID    *int64      `gorm:"column:manager_id"`
	JoinedDate   time.Time   `gorm:"column:joined_date;type:date;not null"`
	Department   *Department `gorm:"foreignKey:DepartmentID"`
	Manager      *User       `gorm:"foreignKey:ManagerID"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
