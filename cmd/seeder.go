package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/holiday"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed departments, users, default leave types, public holidays and opening balances for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer deps.Close(ctx)

		if clearData {
			if err := clearSeedData(deps.Gorm); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seed(ctx, deps); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

const seedPassword = "password"

type seedUser struct {
	Email      string
	FirstName  string
	LastName   string
	Role       string
	Department string
	Manager    string
	Joined     time.Time
}

var seedUsers = []seedUser{
	{"padil@mail.com", "Padil", "Admin", internal.RoleAdmin, "People Operations", "", clock.Date(2019, time.February, 1)},
	{"wanjiru@mail.com", "Wanjiru", "Kamau", internal.RoleManager, "Engineering", "", clock.Date(2020, time.May, 4)},
	{"fadhil@mail.com", "Fadhil", "Rahman", internal.RoleEmployee, "Engineering", "wanjiru@mail.com", clock.Date(2022, time.March, 15)},
	{"otieno@mail.com", "Otieno", "Odhiambo", internal.RoleEmployee, "Engineering", "wanjiru@mail.com", clock.Date(2024, time.September, 2)},
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int {
	return &i
}

var seedLeaveTypes = []leavetype.CreateLeaveTypeDTO{
	{
		Name: "Annual Leave", IsDefault: true, IsEnabled: true, Paid: true, MaxDuration: intPtr(21),
		AccrualBased: true, AccrualRate: decimalPtr("1.75"),
		IsCarryForwardEnabled: true, CarryForwardCap: decimalPtr("5"),
	},
	{
		Name: "Sick Leave", IsDefault: true, IsEnabled: true, Paid: true, MaxDuration: intPtr(14),
		RequireDocument: true,
	},
	{
		Name: "Compassionate Leave", IsDefault: true, IsEnabled: true, Paid: true, MaxDuration: intPtr(5),
		RequireReason: true,
	},
	{
		Name: "Unpaid Leave", IsEnabled: true, RequireReason: true,
	},
}

var seedHolidays = []holiday.CreateHolidayDTO{
	{Name: "New Year's Day", Date: "2025-01-01", IsRecurring: true},
	{Name: "Labour Day", Date: "2025-05-01", IsRecurring: true},
	{Name: "Christmas Day", Date: "2025-12-25", IsRecurring: true},
	{Name: "Boxing Day", Date: "2025-12-26", IsRecurring: true},
}

func seed(ctx context.Context, deps *Dependencies) error {
	hash, err := deps.Auth.HashPassword(seedPassword)
	if err != nil {
		return err
	}

	departments := map[string]int64{}
	ids := map[string]int64{}
	for _, su := range seedUsers {
		if _, ok := departments[su.Department]; !ok {
			dept := userDatamodel.Department{Name: su.Department}
			if err := deps.Gorm.Where(userDatamodel.Department{Name: su.Department}).FirstOrCreate(&dept).Error; err != nil {
				return fmt.Errorf("department %s: %w", su.Department, err)
			}
			departments[su.Department] = dept.ID
		}

		deptID := departments[su.Department]
		u := userDatamodel.User{
			Email:        su.Email,
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			PasswordHash: hash,
			Role:         su.Role,
			Status:       user.StatusActive,
			DepartmentID: &deptID,
			JoinedDate:   su.Joined,
		}
		if managerID, ok := ids[su.Manager]; ok {
			u.ManagerID = &managerID
		}
		result := deps.Gorm.Where(userDatamodel.User{Email: su.Email}).FirstOrCreate(&u)
		if result.Error != nil {
			return fmt.Errorf("user %s: %w", su.Email, result.Error)
		}
		ids[su.Email] = u.ID
		if result.RowsAffected > 0 {
			fmt.Printf("Seeded %s user: %s\n", su.Role, su.Email)
		}
	}

	for _, dto := range seedLeaveTypes {
		if _, err := deps.LeaveTypes.Create(ctx, dto); err != nil {
			if internal.IsErrorType(err, internal.ErrorTypeConflict) {
				continue
			}
			return fmt.Errorf("leave type %s: %w", dto.Name, err)
		}
		fmt.Printf("Seeded leave type: %s\n", dto.Name)
	}

	for _, dto := range seedHolidays {
		if _, err := deps.Holidays.Create(ctx, dto); err != nil {
			if internal.IsErrorType(err, internal.ErrorTypeConflict) {
				continue
			}
			return fmt.Errorf("holiday %s: %w", dto.Name, err)
		}
		fmt.Printf("Seeded holiday: %s\n", dto.Name)
	}

	employees, err := deps.Users.ListActiveEmployees(ctx)
	if err != nil {
		return err
	}
	for _, emp := range employees {
		created, err := deps.Balances.InitializeForEmployee(ctx, emp.ID)
		if err != nil {
			return fmt.Errorf("balances for %s: %w", emp.Email, err)
		}
		if len(created) > 0 {
			fmt.Printf("Initialized %d balances for %s\n", len(created), emp.Email)
		}
	}

	fmt.Println("Seed completed. Every user logs in with password:", seedPassword)
	return nil
}

func clearSeedData(db *gorm.DB) error {
	tables := []string{
		"notifications",
		"outbox_messages",
		"job_runs",
		"leave_request_documents",
		"leave_requests",
		"leave_carry_forwards",
		"leave_accruals",
		"employee_balances",
		"public_holidays",
		"leave_types",
		"users",
		"departments",
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
