package balance_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	balancePostgres "github.com/frahmantamala/leave-management/internal/balance/postgres"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	leavetypePostgres "github.com/frahmantamala/leave-management/internal/leavetype/postgres"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
)

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

var _ = Describe("Balance Service", func() {
	var (
		db       *gorm.DB
		seed     dbtest.Seeder
		service  *balance.Service
		clk      *clock.FixedClock
		ctx      context.Context
		employee *userDatamodel.User
		annual   *leavetypeDatamodel.LeaveType
		sick     *leavetypeDatamodel.LeaveType
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		seed = dbtest.Seeder{DB: db}
		ctx = context.Background()
		clk = clock.NewFixedClock(time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC))

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		types := leavetype.NewService(leavetypePostgres.NewLeaveTypeRepository(db), logger)
		service = balance.NewService(balancePostgres.NewBalanceRepository(db), users, types,
			database.NewTransactor(db), clk, logger)

		employee = seed.User(&userDatamodel.User{Email: "jane@example.com", JoinedDate: clock.Date(2023, time.January, 9)})
		maxDuration := 21
		annual = seed.LeaveType(&leavetypeDatamodel.LeaveType{
			Name: "Annual", IsDefault: true, IsEnabled: true, Paid: true, MaxDuration: &maxDuration,
			AccrualBased: true, AccrualRate: nullDec("1.75"),
			IsCarryForwardEnabled: true, CarryForwardCap: nullDec("5"),
		})
		sick = seed.LeaveType(&leavetypeDatamodel.LeaveType{Name: "Sick", IsDefault: true, IsEnabled: true, Paid: true})
		seed.LeaveType(&leavetypeDatamodel.LeaveType{Name: "Unpaid", IsEnabled: true})
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	Describe("Create", func() {
		It("opens a zero balance capped at the type's max duration", func() {
			b, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.CurrentBalance.IsZero()).To(BeTrue())
			Expect(b.MaxBalance.Equal(d("21"))).To(BeTrue())
			Expect(b.IsEligibleForAccrual).To(BeTrue())
		})

		It("is not eligible for accrual on a non-accrual type", func() {
			b, err := service.Create(ctx, employee.ID, sick.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.IsEligibleForAccrual).To(BeFalse())
			Expect(b.MaxBalance).To(BeNil())
		})

		It("rejects a second balance for the same pair", func() {
			_, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, employee.ID, annual.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeBalanceAlreadyExists))
		})

		It("returns not found for an unknown employee or leave type", func() {
			_, err := service.Create(ctx, 999, annual.ID)
			Expect(errors.Is(err, internal.ErrEmployeeNotFound)).To(BeTrue())

			_, err = service.Create(ctx, employee.ID, 999)
			Expect(errors.Is(err, internal.ErrLeaveTypeNotFound)).To(BeTrue())
		})
	})

	Describe("InitializeForEmployee", func() {
		It("creates balances for missing default types only", func() {
			_, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())

			created, err := service.InitializeForEmployee(ctx, employee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(1))
			Expect(created[0].LeaveTypeID).To(Equal(sick.ID))

			all, err := service.ListByEmployee(ctx, employee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})

	Describe("Adjust", func() {
		var b *balance.EmployeeBalance

		BeforeEach(func() {
			var err error
			b, err = service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("persists the new balance", func() {
			_, err := service.Adjust(ctx, b.ID, d("3.25"))
			Expect(err).NotTo(HaveOccurred())

			stored, err := service.Get(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentBalance.Equal(d("3.25"))).To(BeTrue())
			Expect(stored.LeaveType.Name).To(Equal("Annual"))
			Expect(stored.Employee.Email).To(Equal("jane@example.com"))
		})

		It("rejects a negative result without writing", func() {
			_, err := service.Adjust(ctx, b.ID, d("-1"))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())

			stored, err := service.Get(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentBalance.IsZero()).To(BeTrue())
		})

		It("rejects exceeding the maximum", func() {
			_, err := service.Adjust(ctx, b.ID, d("21.01"))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())
		})

		It("returns not found for an unknown balance", func() {
			_, err := service.Adjust(ctx, 999, d("1"))
			Expect(errors.Is(err, internal.ErrBalanceNotFound)).To(BeTrue())
		})
	})

	Describe("Mutate", func() {
		It("rolls back when the invariants fail after the callback", func() {
			b, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Mutate(ctx, b.ID, func(_ context.Context, b *balance.EmployeeBalance) error {
				b.CurrentBalance = d("-2")
				return nil
			})
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())

			stored, _ := service.Get(ctx, b.ID)
			Expect(stored.CurrentBalance.IsZero()).To(BeTrue())
		})
	})

	Describe("SetMaxBalance", func() {
		It("refuses a maximum below the current balance", func() {
			b, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Adjust(ctx, b.ID, d("6"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SetMaxBalance(ctx, b.ID, amount.Ptr(d("5")))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())

			updated, err := service.SetMaxBalance(ctx, b.ID, amount.Ptr(d("8")))
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.MaxBalance.Equal(d("8"))).To(BeTrue())
		})
	})

	Describe("FindEligibleForAccrual", func() {
		It("filters on flag, employee status, type and last accrual date", func() {
			eligible, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())

			suspended := seed.User(&userDatamodel.User{Email: "s@example.com", Status: user.StatusSuspended, JoinedDate: clock.Date(2022, 1, 1)})
			seed.Balance(&balanceDatamodel.EmployeeBalance{EmployeeID: suspended.ID, LeaveTypeID: annual.ID, IsEligibleForAccrual: true})

			accruedToday := seed.User(&userDatamodel.User{Email: "t@example.com", JoinedDate: clock.Date(2022, 1, 1)})
			today := clock.Date(2024, time.June, 15)
			seed.Balance(&balanceDatamodel.EmployeeBalance{EmployeeID: accruedToday.ID, LeaveTypeID: annual.ID, IsEligibleForAccrual: true, LastAccrualDate: &today})

			flagOff := seed.User(&userDatamodel.User{Email: "f@example.com", JoinedDate: clock.Date(2022, 1, 1)})
			seed.Balance(&balanceDatamodel.EmployeeBalance{EmployeeID: flagOff.ID, LeaveTypeID: annual.ID})

			_, err = service.Create(ctx, employee.ID, sick.ID)
			Expect(err).NotTo(HaveOccurred())

			balances, err := service.FindEligibleForAccrual(ctx, clk.Today())
			Expect(err).NotTo(HaveOccurred())
			Expect(balances).To(HaveLen(1))
			Expect(balances[0].ID).To(Equal(eligible.ID))
			Expect(balances[0].LeaveType).NotTo(BeNil())
			Expect(balances[0].Employee).NotTo(BeNil())
		})
	})

	Describe("FindEligibleForCarryForward", func() {
		It("returns positive balances of carry-forward types", func() {
			b, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())

			balances, err := service.FindEligibleForCarryForward(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(balances).To(BeEmpty())

			_, err = service.Adjust(ctx, b.ID, d("2"))
			Expect(err).NotTo(HaveOccurred())

			balances, err = service.FindEligibleForCarryForward(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(balances).To(HaveLen(1))
		})
	})

	Describe("ListExceedingMaxBalance and TotalAllowance", func() {
		It("reports legacy rows above their cap and the yearly entitlement", func() {
			seed.Balance(&balanceDatamodel.EmployeeBalance{
				EmployeeID: employee.ID, LeaveTypeID: sick.ID,
				CurrentBalance: d("12"), MaxBalance: nullDec("10"),
			})
			b, err := service.Create(ctx, employee.ID, annual.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Adjust(ctx, b.ID, d("1.5"))
			Expect(err).NotTo(HaveOccurred())

			exceeding, err := service.ListExceedingMaxBalance(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(exceeding).To(HaveLen(1))
			Expect(exceeding[0].LeaveTypeID).To(Equal(sick.ID))

			total, err := service.TotalAllowance(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(total.Equal(d("21"))).To(BeTrue())

			total, err = service.TotalAllowance(ctx, exceeding[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(total.Equal(d("10"))).To(BeTrue())
		})
	})
})
