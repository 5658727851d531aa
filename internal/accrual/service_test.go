package accrual_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/accrual"
	accrualPostgres "github.com/frahmantamala/leave-management/internal/accrual/postgres"
	"github.com/frahmantamala/leave-management/internal/balance"
	balancePostgres "github.com/frahmantamala/leave-management/internal/balance/postgres"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/period"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	leavetypePostgres "github.com/frahmantamala/leave-management/internal/leavetype/postgres"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
)

var (
	jan2024 = period.YearMonth{Year: 2024, Month: time.January}
	feb2024 = period.YearMonth{Year: 2024, Month: time.February}
)

var _ = Describe("Accrual Service", func() {
	var (
		db       *gorm.DB
		seed     dbtest.Seeder
		clk      *clock.FixedClock
		ctx      context.Context
		balances *balance.Service
		service  *accrual.Service
		annual   *leavetypeDatamodel.LeaveType
		employee *userDatamodel.User
	)

	nullDec := func(s string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: d(s), Valid: true}
	}

	openBalance := func(employeeID int64) *balance.EmployeeBalance {
		b, err := balances.Create(ctx, employeeID, annual.ID)
		Expect(err).NotTo(HaveOccurred())
		return b
	}

	outboxCount := func() int64 {
		var count int64
		Expect(db.Model(&outboxDatamodel.Message{}).
			Where("event_type = ?", events.EventTypeAccrualProcessed).
			Count(&count).Error).To(Succeed())
		return count
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		seed = dbtest.Seeder{DB: db}
		ctx = context.Background()
		clk = clock.NewFixedClock(time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC))

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tx := database.NewTransactor(db)
		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		types := leavetype.NewService(leavetypePostgres.NewLeaveTypeRepository(db), logger)
		balances = balance.NewService(balancePostgres.NewBalanceRepository(db), users, types, tx, clk, logger)
		service = accrual.NewService(
			accrualPostgres.NewAccrualRepository(db),
			accrualPostgres.NewSummaryRepository(sqlx.NewDb(sqlDB, "sqlite3")),
			balances,
			users,
			tx,
			events.NewOutboxWriter(db, clk),
			clk,
			logger,
		)

		maxDuration := 21
		annual = seed.LeaveType(&leavetypeDatamodel.LeaveType{
			Name: "Annual", IsDefault: true, IsEnabled: true, Paid: true, MaxDuration: &maxDuration,
			AccrualBased: true, AccrualRate: nullDec("1.75"),
		})
		employee = seed.User(&userDatamodel.User{
			Email: "joiner@example.com", FirstName: "Ada", LastName: "Joiner",
			JoinedDate: clock.Date(2024, time.January, 10),
		})
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	Describe("ProcessAccrualForBalance", func() {
		It("prorates the joining month and accrues the full rate afterwards", func() {
			b := openBalance(employee.ID)

			jan, err := service.ProcessAccrualForBalance(ctx, b.ID, jan2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(jan.Amount.StringFixed(2)).To(Equal("1.24"))
			Expect(jan.IsProrated).To(BeTrue())
			Expect(jan.AccrualDate).To(Equal(clock.Date(2024, time.March, 5)))

			feb, err := service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(feb.Amount.Equal(d("1.75"))).To(BeTrue())
			Expect(feb.IsProrated).To(BeFalse())

			stored, err := balances.Get(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentBalance.StringFixed(2)).To(Equal("2.99"))
			Expect(stored.LastAccrualDate).NotTo(BeNil())
			Expect(clock.DateOf(*stored.LastAccrualDate)).To(Equal(clock.Date(2024, time.March, 5)))

			history, err := service.FindByBalance(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].YearMonth).To(Equal("2024-02"))
			Expect(history[0].LeaveTypeName).To(Equal("Annual"))
			Expect(history[0].EmployeeName).To(Equal("Ada Joiner"))
			Expect(outboxCount()).To(Equal(int64(2)))
		})

		It("applies a period only once", func() {
			b := openBalance(employee.ID)

			_, err := service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidState)).To(BeTrue())

			stored, err := balances.Get(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentBalance.Equal(d("1.75"))).To(BeTrue())

			history, err := service.FindByBalance(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(outboxCount()).To(Equal(int64(1)))
		})

		It("writes nothing when the maximum balance would be exceeded", func() {
			b := openBalance(employee.ID)
			_, err := balances.SetMaxBalance(ctx, b.ID, amount.Ptr(d("1")))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())

			_, err = service.FindByBalanceAndPeriod(ctx, b.ID, feb2024)
			Expect(err).To(MatchError(internal.ErrAccrualNotFound))

			stored, err := balances.Get(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentBalance.IsZero()).To(BeTrue())
			Expect(stored.LastAccrualDate).To(BeNil())
			Expect(outboxCount()).To(BeZero())
		})

		It("records a zero accrual for a balance that is not eligible", func() {
			b := openBalance(employee.ID)
			_, err := balances.UpdateAccrualEligibility(ctx, b.ID, false)
			Expect(err).NotTo(HaveOccurred())

			record, err := service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Amount.IsZero()).To(BeTrue())
		})
	})

	Describe("ProcessMonthlyAccruals", func() {
		It("isolates failures and skips balances already accrued", func() {
			ok := openBalance(employee.ID)

			capped := seed.User(&userDatamodel.User{Email: "capped@example.com", JoinedDate: clock.Date(2020, time.May, 1)})
			cappedBalance := openBalance(capped.ID)
			_, err := balances.SetMaxBalance(ctx, cappedBalance.ID, amount.Ptr(d("1")))
			Expect(err).NotTo(HaveOccurred())

			done := seed.User(&userDatamodel.User{Email: "done@example.com", JoinedDate: clock.Date(2020, time.May, 1)})
			doneBalance := openBalance(done.ID)
			_, err = service.ProcessAccrualForBalance(ctx, doneBalance.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())

			result, err := service.ProcessMonthlyAccruals(ctx, feb2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.YearMonth).To(Equal("2024-02"))
			Expect(result.Processed).To(HaveLen(1))
			Expect(result.Processed[0].EmployeeBalanceID).To(Equal(ok.ID))
			Expect(result.Skipped).To(Equal(1))
			Expect(result.Failures).To(HaveLen(1))
			Expect(result.Failures[0].EmployeeBalanceID).To(Equal(cappedBalance.ID))
		})
	})

	Describe("ProcessEmployeeMonthlyAccruals", func() {
		It("fails without balances and refuses a processed month", func() {
			_, err := service.ProcessEmployeeMonthlyAccruals(ctx, employee.ID, feb2024)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			openBalance(employee.ID)
			records, err := service.ProcessEmployeeMonthlyAccruals(ctx, employee.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))

			_, err = service.ProcessEmployeeMonthlyAccruals(ctx, employee.ID, feb2024)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAccrualAlreadyProcessed))
		})

		It("returns not found for an unknown employee", func() {
			_, err := service.ProcessEmployeeMonthlyAccruals(ctx, 404, feb2024)
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})
	})

	Describe("ProcessEmployeeYear", func() {
		It("accrues completed months only and skips processed ones", func() {
			b := openBalance(employee.ID)
			_, err := service.ProcessAccrualForBalance(ctx, b.ID, jan2024)
			Expect(err).NotTo(HaveOccurred())

			records, err := service.ProcessEmployeeYear(ctx, employee.ID, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].YearMonth).To(Equal("2024-02"))
		})
	})

	Describe("queries", func() {
		It("summarises each processed period", func() {
			b := openBalance(employee.ID)
			_, err := service.ProcessAccrualForBalance(ctx, b.ID, jan2024)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ProcessAccrualForBalance(ctx, b.ID, period.YearMonth{Year: 2023, Month: time.December})
			Expect(err).NotTo(HaveOccurred())

			summaries, err := service.HistorySummary(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(3))
			Expect(summaries[0].Label).To(Equal("February 2024"))
			Expect(summaries[0].Status).To(Equal(accrual.SummaryStatusCompleted))
			Expect(summaries[0].TotalDays.StringFixed(2)).To(Equal("1.75"))
			Expect(summaries[0].EmployeeCount).To(Equal(int64(1)))
			Expect(summaries[1].Status).To(Equal(accrual.SummaryStatusPartial))
			Expect(summaries[2].Label).To(Equal("December 2023"))
			Expect(summaries[2].Status).To(Equal(accrual.SummaryStatusFailed))
		})

		It("validates the requested period", func() {
			_, err := service.HasAccrualsBeenProcessed(ctx, 2024, 13)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			_, err = service.PeriodDetails(ctx, "2024/02")
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			processed, err := service.HasAccrualsBeenProcessed(ctx, 2024, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(processed).To(BeFalse())

			b := openBalance(employee.ID)
			_, err = service.ProcessAccrualForBalance(ctx, b.ID, feb2024)
			Expect(err).NotTo(HaveOccurred())

			processed, err = service.HasAccrualsBeenProcessed(ctx, 2024, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(processed).To(BeTrue())

			details, err := service.PeriodDetails(ctx, "2024-02")
			Expect(err).NotTo(HaveOccurred())
			Expect(details).To(HaveLen(1))
		})
	})
})
