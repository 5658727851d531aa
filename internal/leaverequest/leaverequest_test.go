package leaverequest_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/leaverequest"
)

// June 2024: the 10th is a Monday.
func june(day int) time.Time {
	return clock.Date(2024, time.June, day)
}

var _ = Describe("Durations", func() {
	DescribeTable("SubmissionDuration counts calendar days",
		func(start, end time.Time, halfStart, halfEnd bool, expected string) {
			Expect(leaverequest.SubmissionDuration(start, end, halfStart, halfEnd).String()).To(Equal(expected))
		},
		Entry("single day", june(10), june(10), false, false, "1"),
		Entry("working week", june(10), june(14), false, false, "5"),
		Entry("weekend included", june(14), june(17), false, false, "4"),
		Entry("half day start", june(10), june(11), true, false, "1.5"),
		Entry("both half days", june(10), june(12), true, true, "2"),
	)

	DescribeTable("WorkingDays skips weekends",
		func(start, end time.Time, halfStart, halfEnd bool, expected string) {
			Expect(leaverequest.WorkingDays(start, end, halfStart, halfEnd).String()).To(Equal(expected))
		},
		Entry("monday to friday", june(10), june(14), false, false, "5"),
		Entry("saturday to sunday", june(15), june(16), false, false, "0"),
		Entry("friday to monday", june(14), june(17), false, false, "2"),
		Entry("two weeks", june(10), june(21), false, false, "10"),
		Entry("half day on a weekday", june(14), june(17), false, true, "1.5"),
		Entry("half day on a saturday is ignored", june(15), june(17), true, false, "1"),
	)
})

var _ = Describe("LeaveRequest transitions", func() {
	var lr *leaverequest.LeaveRequest
	now := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)
	reason := "team offsite"

	BeforeEach(func() {
		lr = &leaverequest.LeaveRequest{ID: 1, EmployeeID: 7, StartDate: june(10), EndDate: june(14), Status: leaverequest.StatusPending}
	})

	It("records the approver when approving", func() {
		Expect(lr.Decide(leaverequest.StatusApproved, nil, 3, now)).To(Succeed())
		Expect(lr.Status).To(Equal(leaverequest.StatusApproved))
		Expect(*lr.ManagerID).To(Equal(int64(3)))
		Expect(*lr.ApprovedAt).To(Equal(now))
		Expect(lr.RejectionReason).To(BeNil())
	})

	It("keeps the rejection reason only for rejections", func() {
		Expect(lr.Decide(leaverequest.StatusRejected, &reason, 3, now)).To(Succeed())
		Expect(*lr.RejectionReason).To(Equal(reason))
	})

	It("allows exactly one transition out of PENDING", func() {
		Expect(lr.Cancel()).To(Succeed())

		err := lr.Decide(leaverequest.StatusApproved, nil, 3, now)
		Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidState)).To(BeTrue())
		Expect(lr.Cancel()).NotTo(Succeed())
		Expect(lr.Status).To(Equal(leaverequest.StatusCancelled))
	})
})
