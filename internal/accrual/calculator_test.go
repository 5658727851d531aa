package accrual_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/period"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("Accrual calculator", func() {
	DescribeTable("CalculateAmount",
		func(rate string, joined time.Time, ym period.YearMonth, expected string) {
			Expect(accrual.CalculateAmount(d(rate), joined, ym).StringFixed(2)).To(Equal(expected))
		},
		Entry("mid-month join in a 30 day month", "3.00", clock.Date(2024, time.April, 15),
			period.YearMonth{Year: 2024, Month: time.April}, "1.60"),
		Entry("joined before the month", "1.75", clock.Date(2023, time.November, 2),
			period.YearMonth{Year: 2024, Month: time.February}, "1.75"),
		Entry("joined the day before the month", "1.75", clock.Date(2024, time.January, 31),
			period.YearMonth{Year: 2024, Month: time.February}, "1.75"),
		Entry("joined after the month", "1.75", clock.Date(2024, time.March, 1),
			period.YearMonth{Year: 2024, Month: time.February}, "0.00"),
		Entry("joined on the 10th of January", "1.75", clock.Date(2024, time.January, 10),
			period.YearMonth{Year: 2024, Month: time.January}, "1.24"),
		Entry("joined on the first day", "2.00", clock.Date(2024, time.June, 1),
			period.YearMonth{Year: 2024, Month: time.June}, "2.00"),
		Entry("joined on the last day of a leap February", "2.00", clock.Date(2024, time.February, 29),
			period.YearMonth{Year: 2024, Month: time.February}, "0.07"),
		Entry("half of a 28 day February", "1.00", clock.Date(2023, time.February, 15),
			period.YearMonth{Year: 2023, Month: time.February}, "0.50"),
		Entry("rounds half up", "0.25", clock.Date(2024, time.April, 28),
			period.YearMonth{Year: 2024, Month: time.April}, "0.03"),
	)

	Describe("IsProrated", func() {
		It("is true only when the join date falls in the month", func() {
			jan := period.YearMonth{Year: 2024, Month: time.January}
			Expect(accrual.IsProrated(clock.Date(2024, time.January, 10), jan)).To(BeTrue())
			Expect(accrual.IsProrated(clock.Date(2024, time.January, 1), jan)).To(BeTrue())
			Expect(accrual.IsProrated(clock.Date(2023, time.December, 31), jan)).To(BeFalse())
			Expect(accrual.IsProrated(clock.Date(2024, time.February, 1), jan)).To(BeFalse())
		})
	})

	Describe("PreviousMonth", func() {
		It("crosses the year boundary", func() {
			Expect(accrual.PreviousMonth(clock.Date(2024, time.January, 4))).
				To(Equal(period.YearMonth{Year: 2023, Month: time.December}))
			Expect(accrual.PreviousMonth(clock.Date(2024, time.April, 30))).
				To(Equal(period.YearMonth{Year: 2024, Month: time.March}))
		})
	})
})
