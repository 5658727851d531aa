// Package dbtest opens an in-memory SQLite database carrying the full schema
// for repository and engine suites.
package dbtest

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	accrualDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/accrual"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	carryforwardDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/carryforward"
	holidayDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/holiday"
	jobrunDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/jobrun"
	leaverequestDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leaverequest"
	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
)

func Models() []interface{} {
	return []interface{}{
		&userDatamodel.Department{},
		&userDatamodel.User{},
		&leavetypeDatamodel.LeaveType{},
		&balanceDatamodel.EmployeeBalance{},
		&accrualDatamodel.LeaveAccrual{},
		&carryforwardDatamodel.LeaveCarryForward{},
		&leaverequestDatamodel.LeaveRequest{},
		&leaverequestDatamodel.LeaveDocument{},
		&holidayDatamodel.PublicHoliday{},
		&notificationDatamodel.Notification{},
		&outboxDatamodel.Message{},
		&jobrunDatamodel.JobRun{},
	}
}

// Open returns a migrated database pinned to a single connection, since every
// new connection to ":memory:" would see an empty database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Seeder inserts reference rows directly, bypassing services.
type Seeder struct {
	DB *gorm.DB
}

func (s Seeder) Department(name string) *userDatamodel.Department {
	d := &userDatamodel.Department{Name: name}
	if err := s.DB.Create(d).Error; err != nil {
		panic(err)
	}
	return d
}

func (s Seeder) User(u *userDatamodel.User) *userDatamodel.User {
	if u.PasswordHash == "" {
		u.PasswordHash = "x"
	}
	if u.Role == "" {
		u.Role = "EMPLOYEE"
	}
	if u.Status == "" {
		u.Status = "ACTIVE"
	}
	if u.FirstName == "" {
		u.FirstName = "Test"
	}
	if u.LastName == "" {
		u.LastName = "User"
	}
	if err := s.DB.Omit("Department", "Manager").Create(u).Error; err != nil {
		panic(err)
	}
	return u
}

func (s Seeder) LeaveType(lt *leavetypeDatamodel.LeaveType) *leavetypeDatamodel.LeaveType {
	if err := s.DB.Create(lt).Error; err != nil {
		panic(err)
	}
	return lt
}

func (s Seeder) Balance(b *balanceDatamodel.EmployeeBalance) *balanceDatamodel.EmployeeBalance {
	if err := s.DB.Omit("Employee", "LeaveType").Create(b).Error; err != nil {
		panic(err)
	}
	return b
}
