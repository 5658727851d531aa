package carryforward_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/carryforward"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("LeaveCarryForward", func() {
	DescribeTable("Split",
		func(original, limit, carried, forfeited string) {
			c, f := carryforward.Split(d(original), d(limit))
			Expect(c.StringFixed(2)).To(Equal(carried))
			Expect(f.StringFixed(2)).To(Equal(forfeited))
			Expect(c.Add(f).Equal(d(original))).To(BeTrue())
		},
		Entry("above the cap", "25.00", "20.00", "20.00", "5.00"),
		Entry("below the cap", "3.50", "5.00", "3.50", "0.00"),
		Entry("exactly the cap", "5.00", "5.00", "5.00", "0.00"),
		Entry("empty balance", "0", "5.00", "0.00", "0.00"),
		Entry("fractional forfeiture", "7.33", "5.25", "5.25", "2.08"),
	)

	Describe("Validate", func() {
		It("accepts a conserving record", func() {
			record := &carryforward.LeaveCarryForward{
				FromYear: 2024, ToYear: 2025,
				OriginalBalance: d("25"), CarriedForwardAmount: d("20"), ForfeitedAmount: d("5"),
			}
			Expect(record.Validate()).To(Succeed())
		})

		It("rejects amounts that do not add up", func() {
			record := &carryforward.LeaveCarryForward{
				FromYear: 2024, ToYear: 2025,
				OriginalBalance: d("25"), CarriedForwardAmount: d("20"), ForfeitedAmount: d("4.99"),
			}
			err := record.Validate()
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("rejects a transition that does not move forward", func() {
			record := &carryforward.LeaveCarryForward{
				FromYear: 2025, ToYear: 2025,
				OriginalBalance: d("1"), CarriedForwardAmount: d("1"), ForfeitedAmount: d("0"),
			}
			Expect(record.Validate()).NotTo(Succeed())
		})
	})
})
