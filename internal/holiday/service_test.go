package holiday_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	"github.com/frahmantamala/leave-management/internal/core/period"
	"github.com/frahmantamala/leave-management/internal/holiday"
	holidayPostgres "github.com/frahmantamala/leave-management/internal/holiday/postgres"
)

var _ = Describe("Holiday Service", func() {
	var (
		db      *gorm.DB
		ctx     context.Context
		service *holiday.Service
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = holiday.NewService(holidayPostgres.NewHolidayRepository(db), logger)
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	create := func(name, date string, recurring bool) *holiday.PublicHoliday {
		h, err := service.Create(ctx, holiday.CreateHolidayDTO{Name: name, Date: date, IsRecurring: recurring})
		Expect(err).NotTo(HaveOccurred())
		return h
	}

	Describe("Create", func() {
		It("rejects a second holiday on the same date", func() {
			create("Labour Day", "2024-05-01", false)

			_, err := service.Create(ctx, holiday.CreateHolidayDTO{Name: "Other", Date: "2024-05-01"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("rejects malformed dates and blank names", func() {
			_, err := service.Create(ctx, holiday.CreateHolidayDTO{Name: "Bad", Date: "01/05/2024"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())

			_, err = service.Create(ctx, holiday.CreateHolidayDTO{Name: "  ", Date: "2024-05-01"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("projects recurring holidays into the requested years", func() {
			create("Christmas", "2020-12-25", true)
			create("Election Day", "2024-12-09", false)
			create("Founders Day", "2023-03-01", false)

			holidays, err := service.List(ctx, clock.Date(2024, time.December, 1), clock.Date(2025, time.January, 31))
			Expect(err).NotTo(HaveOccurred())
			Expect(holidays).To(HaveLen(2))
			Expect(holidays[0].Name).To(Equal("Election Day"))
			Expect(holidays[1].Name).To(Equal("Christmas"))
			Expect(holidays[1].Date).To(Equal(clock.Date(2024, time.December, 25)))
		})

		It("prefers a stored holiday over a projection on the same date", func() {
			create("New Year", "2019-01-01", true)
			create("New Year 2024", "2024-01-01", false)

			holidays, err := service.ListForMonth(ctx, period.YearMonth{Year: 2024, Month: time.January})
			Expect(err).NotTo(HaveOccurred())
			Expect(holidays).To(HaveLen(1))
			Expect(holidays[0].Name).To(Equal("New Year 2024"))
		})

		It("skips 29 February in common years", func() {
			create("Leap Day", "2024-02-29", true)

			holidays, err := service.ListForYear(ctx, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(holidays).To(BeEmpty())
		})

		It("rejects an inverted range", func() {
			_, err := service.List(ctx, clock.Date(2024, time.May, 2), clock.Date(2024, time.May, 1))
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("Update and Delete", func() {
		It("moves and then removes a holiday", func() {
			h := create("Heroes Day", "2024-10-20", false)

			newDate := "2024-10-21"
			updated, err := service.Update(ctx, h.ID, holiday.UpdateHolidayDTO{Date: &newDate})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Date).To(Equal(clock.Date(2024, time.October, 21)))

			isHoliday, err := service.IsHoliday(ctx, clock.Date(2024, time.October, 21))
			Expect(err).NotTo(HaveOccurred())
			Expect(isHoliday).To(BeTrue())

			Expect(service.Delete(ctx, h.ID)).To(Succeed())
			_, err = service.Get(ctx, h.ID)
			Expect(err).To(MatchError(internal.ErrHolidayNotFound))
		})
	})
})
