package balance_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/user"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("EmployeeBalance", func() {
	var (
		b     *balance.EmployeeBalance
		today time.Time
	)

	BeforeEach(func() {
		today = clock.Date(2024, time.June, 1)
		b = &balance.EmployeeBalance{
			CurrentBalance: d("5.00"),
			MaxBalance:     amount.Ptr(d("10")),
		}
	})

	Describe("Adjust", func() {
		It("adds a positive delta", func() {
			Expect(b.Adjust(d("2.5"))).To(Succeed())
			Expect(b.CurrentBalance.Equal(d("7.50"))).To(BeTrue())
		})

		It("refuses to go below zero and leaves the balance untouched", func() {
			err := b.Adjust(d("-5.01"))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())
			Expect(b.CurrentBalance.Equal(d("5"))).To(BeTrue())
		})

		It("refuses to exceed the maximum", func() {
			err := b.Adjust(d("5.01"))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeBalanceExceedsMax))
		})

		It("allows reaching the maximum exactly", func() {
			Expect(b.Adjust(d("5"))).To(Succeed())
		})
	})

	Describe("SetMax", func() {
		It("rejects a non-positive maximum", func() {
			err := b.SetMax(amount.Ptr(decimal.Zero))
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("rejects a maximum below the current balance", func() {
			err := b.SetMax(amount.Ptr(d("4.99")))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidBalance)).To(BeTrue())
		})

		It("removes the cap with nil", func() {
			Expect(b.SetMax(nil)).To(Succeed())
			Expect(b.MaxBalance).To(BeNil())
		})
	})

	Describe("Validate", func() {
		It("accepts a consistent balance", func() {
			Expect(b.Validate(today)).To(Succeed())
		})

		It("rejects a future accrual date", func() {
			future := today.AddDate(0, 0, 1)
			b.LastAccrualDate = &future
			Expect(b.Validate(today)).NotTo(Succeed())
		})

		It("rejects three integer digits", func() {
			b.MaxBalance = nil
			b.CurrentBalance = d("100")
			Expect(b.Validate(today)).NotTo(Succeed())
		})

		It("rejects a balance above the maximum", func() {
			b.CurrentBalance = d("10.01")
			Expect(b.Validate(today)).NotTo(Succeed())
		})
	})

	Describe("New", func() {
		It("derives the maximum and eligibility", func() {
			maxDuration := 21
			employee := &user.User{ID: 1, Status: user.StatusActive}
			lt := &leavetype.LeaveType{ID: 2, AccrualBased: true, AccrualRate: amount.Ptr(d("1.75")), MaxDuration: &maxDuration}

			nb := balance.New(employee, lt)
			Expect(nb.CurrentBalance.IsZero()).To(BeTrue())
			Expect(nb.MaxBalance.Equal(d("21"))).To(BeTrue())
			Expect(nb.IsEligibleForAccrual).To(BeTrue())
			Expect(nb.AccruesNow()).To(BeTrue())

			employee.Status = user.StatusSuspended
			Expect(balance.New(employee, lt).IsEligibleForAccrual).To(BeFalse())
		})
	})
})
