package carryforward_test

import (
	"context"
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
	"github.com/frahmantamala/leave-management/internal/carryforward"
	carryforwardPostgres "github.com/frahmantamala/leave-management/internal/carryforward/postgres"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
	outboxDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/outbox"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	leavetypePostgres "github.com/frahmantamala/leave-management/internal/leavetype/postgres"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
)

var _ = Describe("CarryForward Service", func() {
	var (
		db       *gorm.DB
		seed     dbtest.Seeder
		ctx      context.Context
		balances *balance.Service
		service  *carryforward.Service
		annual   *leavetypeDatamodel.LeaveType
		sick     *leavetypeDatamodel.LeaveType
		employee *userDatamodel.User
	)

	nullDec := func(s string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: d(s), Valid: true}
	}

	seedBalance := func(employeeID int64, lt *leavetypeDatamodel.LeaveType, current string) int64 {
		b := seed.Balance(&balanceDatamodel.EmployeeBalance{
			EmployeeID: employeeID, LeaveTypeID: lt.ID,
			CurrentBalance: d(current), MaxBalance: nullDec("30"),
		})
		return b.ID
	}

	currentOf := func(id int64) string {
		b, err := balances.Get(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return b.CurrentBalance.StringFixed(2)
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		seed = dbtest.Seeder{DB: db}
		ctx = context.Background()
		clk := clock.NewFixedClock(time.Date(2025, time.January, 2, 7, 30, 0, 0, time.UTC))

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		types := leavetype.NewService(leavetypePostgres.NewLeaveTypeRepository(db), logger)
		balances = balance.NewService(balancePostgres.NewBalanceRepository(db), users, types,
			database.NewTransactor(db), clk, logger)
		service = carryforward.NewService(
			carryforwardPostgres.NewCarryForwardRepository(db),
			balances,
			types,
			users,
			events.NewOutboxWriter(db, clk),
			clk,
			logger,
		)

		maxDuration := 30
		annual = seed.LeaveType(&leavetypeDatamodel.LeaveType{
			Name: "Annual", IsDefault: true, IsEnabled: true, Paid: true, MaxDuration: &maxDuration,
			AccrualBased: true, AccrualRate: nullDec("1.75"),
			IsCarryForwardEnabled: true, CarryForwardCap: nullDec("20"),
		})
		sick = seed.LeaveType(&leavetypeDatamodel.LeaveType{Name: "Sick", IsDefault: true, IsEnabled: true, Paid: true})
		employee = seed.User(&userDatamodel.User{Email: "carry@example.com", JoinedDate: clock.Date(2021, time.March, 1)})
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	Describe("ProcessCarryForward", func() {
		It("caps the balance and forfeits the excess", func() {
			id := seedBalance(employee.ID, annual, "25")

			record, err := service.ProcessCarryForward(ctx, id, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).NotTo(BeNil())
			Expect(record.CarriedForwardAmount.StringFixed(2)).To(Equal("20.00"))
			Expect(record.ForfeitedAmount.StringFixed(2)).To(Equal("5.00"))
			Expect(record.CarriedForwardAmount.Add(record.ForfeitedAmount).Equal(record.OriginalBalance)).To(BeTrue())
			Expect(record.CarryForwardDate).To(Equal(clock.Date(2025, time.January, 2)))
			Expect(currentOf(id)).To(Equal("20.00"))

			var messages int64
			Expect(db.Model(&outboxDatamodel.Message{}).
				Where("event_type = ?", events.EventTypeCarryForwardProcessed).
				Count(&messages).Error).To(Succeed())
			Expect(messages).To(Equal(int64(1)))
		})

		It("is a no-op the second time", func() {
			id := seedBalance(employee.ID, annual, "25")
			_, err := service.ProcessCarryForward(ctx, id, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())

			record, err := service.ProcessCarryForward(ctx, id, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(BeNil())
			Expect(currentOf(id)).To(Equal("20.00"))

			history, err := service.HistoryByBalance(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].LeaveTypeName).To(Equal("Annual"))
		})

		It("skips leave types without carry-forward", func() {
			id := seedBalance(employee.ID, sick, "4")

			record, err := service.ProcessCarryForward(ctx, id, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(BeNil())
			Expect(currentOf(id)).To(Equal("4.00"))
		})

		It("rejects a backwards transition", func() {
			id := seedBalance(employee.ID, annual, "2")
			_, err := service.ProcessCarryForward(ctx, id, 2025, 2024)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("returns not found for an unknown balance", func() {
			_, err := service.ProcessCarryForward(ctx, 999, 2024, 2025)
			Expect(err).To(MatchError(internal.ErrBalanceNotFound))
		})
	})

	Describe("ProcessAnnualCarryForward", func() {
		It("processes every balance of carry-forward types once", func() {
			first := seedBalance(employee.ID, annual, "25")
			other := seed.User(&userDatamodel.User{Email: "other@example.com", JoinedDate: clock.Date(2022, time.June, 1)})
			second := seedBalance(other.ID, annual, "3.5")
			sickID := seedBalance(employee.ID, sick, "8")

			result, err := service.ProcessAnnualCarryForward(ctx, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Processed).To(HaveLen(2))
			Expect(result.Failures).To(BeEmpty())
			Expect(currentOf(first)).To(Equal("20.00"))
			Expect(currentOf(second)).To(Equal("3.50"))
			Expect(currentOf(sickID)).To(Equal("8.00"))

			again, err := service.ProcessAnnualCarryForward(ctx, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Processed).To(BeEmpty())
			Expect(again.Skipped).To(Equal(2))

			history, err := service.HistoryByYears(ctx, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			for _, record := range history {
				Expect(record.CarriedForwardAmount.Add(record.ForfeitedAmount).Equal(record.OriginalBalance)).To(BeTrue())
			}

			total, err := service.TotalCarriedForward(ctx, first, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(total.StringFixed(2)).To(Equal("20.00"))

			total, err = service.TotalCarriedForward(ctx, first, 2023, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(total.IsZero()).To(BeTrue())
		})
	})

	Describe("ProcessEmployeeCarryForward", func() {
		It("refuses to process the same year twice", func() {
			_, err := service.ProcessEmployeeCarryForward(ctx, employee.ID, 2024, 2025)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			seedBalance(employee.ID, annual, "21")
			seedBalance(employee.ID, sick, "2")

			records, err := service.ProcessEmployeeCarryForward(ctx, employee.ID, 2024, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ForfeitedAmount.StringFixed(2)).To(Equal("1.00"))

			_, err = service.ProcessEmployeeCarryForward(ctx, employee.ID, 2024, 2025)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeCarryForwardAlreadyProcessed))
		})
	})

	Describe("Preview", func() {
		It("projects without writing", func() {
			id := seedBalance(employee.ID, annual, "25")
			seedBalance(employee.ID, sick, "3")

			projections, err := service.Preview(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(projections).To(HaveLen(1))
			Expect(projections[0].EmployeeBalanceID).To(Equal(id))
			Expect(projections[0].ForfeitedAmount.StringFixed(2)).To(Equal("5.00"))
			Expect(currentOf(id)).To(Equal("25.00"))
		})
	})
})
