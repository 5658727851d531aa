package report_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/report"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/user"
)

type mockDirectory struct {
	users map[int64]*user.User
}

func (m *mockDirectory) GetEmployee(_ context.Context, id int64) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, internal.ErrEmployeeNotFound
}

type mockHistory struct {
	balances      []*balance.EmployeeBalance
	accruals      map[int64][]*accrual.LeaveAccrual
	carryForwards map[int64][]*carryforward.LeaveCarryForward
	accrualErr    error
}

func (m *mockHistory) ListByEmployee(_ context.Context, employeeID int64) ([]*balance.EmployeeBalance, error) {
	var result []*balance.EmployeeBalance
	for _, b := range m.balances {
		if b.EmployeeID == employeeID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockHistory) FindByBalance(_ context.Context, balanceID int64) ([]*accrual.LeaveAccrual, error) {
	if m.accrualErr != nil {
		return nil, m.accrualErr
	}
	return m.accruals[balanceID], nil
}

func (m *mockHistory) HistoryByBalance(_ context.Context, balanceID int64) ([]*carryforward.LeaveCarryForward, error) {
	return m.carryForwards[balanceID], nil
}

var _ = Describe("Report Service", func() {
	var (
		directory *mockDirectory
		history   *mockHistory
		service   *report.Service
		clk       *clock.FixedClock
		logger    *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clk = clock.NewFixedClock(time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC))
		directory = &mockDirectory{users: map[int64]*user.User{
			7: {ID: 7, Email: "erin@example.com", FirstName: "Erin", LastName: "Engineer", DepartmentName: "Engineering"},
		}}

		maxDuration := 21
		maxBalance := decimal.NewFromInt(30)
		history = &mockHistory{
			balances: []*balance.EmployeeBalance{
				{
					ID: 1, EmployeeID: 7, LeaveTypeID: 1, CurrentBalance: decimal.RequireFromString("21.75"), MaxBalance: &maxBalance,
					LeaveType: &leavetype.LeaveType{ID: 1, Name: "Annual", MaxDuration: &maxDuration},
				},
				{ID: 2, EmployeeID: 7, LeaveTypeID: 2, CurrentBalance: decimal.NewFromInt(4)},
			},
			accruals: map[int64][]*accrual.LeaveAccrual{
				1: {{ID: 10, EmployeeBalanceID: 1, YearMonth: "2024-12", AccrualDate: clock.Date(2025, time.January, 1), Amount: decimal.RequireFromString("1.75")}},
			},
			carryForwards: map[int64][]*carryforward.LeaveCarryForward{
				1: {{ID: 5, EmployeeBalanceID: 1, FromYear: 2024, ToYear: 2025,
					OriginalBalance: decimal.NewFromInt(25), CarriedForwardAmount: decimal.NewFromInt(20), ForfeitedAmount: decimal.NewFromInt(5)}},
			},
		}
		service = report.NewService(directory, history, history, history, clk, logger)
	})

	It("collects each balance with its history", func() {
		statement, err := service.BalanceStatement(context.Background(), 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(statement.GeneratedAt).To(Equal(clk.Now()))
		Expect(statement.Sections).To(HaveLen(2))

		annual := statement.Sections[0]
		Expect(annual.LeaveTypeName()).To(Equal("Annual"))
		Expect(annual.TotalAllowance.String()).To(Equal("21"))
		Expect(annual.Accruals).To(HaveLen(1))
		Expect(annual.CarryForwards).To(HaveLen(1))
		Expect(statement.Sections[1].LeaveTypeName()).To(Equal("Leave type #2"))

		var buf bytes.Buffer
		Expect(report.Render(statement, &buf)).To(Succeed())
		Expect(buf.String()).To(HavePrefix("%PDF-"))
	})

	It("returns not found for an unknown employee", func() {
		_, err := service.BalanceStatement(context.Background(), 99)
		Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
	})

	It("propagates history failures", func() {
		history.accrualErr = errors.New("connection reset")
		_, err := service.BalanceStatement(context.Background(), 7)
		Expect(err).To(HaveOccurred())
	})

	Describe("GetBalanceStatement", func() {
		var (
			router    chi.Router
			principal *internal.User
		)

		BeforeEach(func() {
			handler := report.NewHandler(&transport.BaseHandler{Logger: logger}, service)
			router = chi.NewRouter()
			router.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), principal)))
				})
			})
			router.Get("/employees/{employeeID}/balances/statement.pdf", handler.GetBalanceStatement)
		})

		get := func() *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/employees/7/balances/statement.pdf", nil))
			return w
		}

		It("serves the employee's own statement as a PDF", func() {
			principal = &internal.User{ID: 7, Role: internal.RoleEmployee}
			w := get()
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/pdf"))
			Expect(w.Body.String()).To(HavePrefix("%PDF-"))
		})

		It("refuses someone else's statement without the report permission", func() {
			principal = &internal.User{ID: 8, Role: internal.RoleEmployee}
			Expect(get().Code).To(Equal(http.StatusForbidden))

			principal = &internal.User{ID: 8, Role: internal.RoleManager, Permissions: []string{internal.PermViewReports}}
			Expect(get().Code).To(Equal(http.StatusOK))
		})
	})
})
