package leaverequest_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	"github.com/frahmantamala/leave-management/internal/leaverequest"
	"github.com/frahmantamala/leave-management/internal/transport"
)

func idStr(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ = Describe("LeaveRequest Handler Integration", func() {
	var (
		f         *fixture
		router    chi.Router
		principal *internal.User
	)

	BeforeEach(func() {
		f = newFixture()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := leaverequest.NewHandler(&transport.BaseHandler{Logger: slogger}, f.service(leaverequest.Config{}), f.clk)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), principal)))
			})
		})
		router.Post("/leave-requests", handler.SubmitLeaveRequest)
		router.Get("/leave-requests", handler.GetLeaveRequests)
		router.Get("/leave-requests/me", handler.GetMyLeaveRequests)
		router.Get("/leave-requests/{id}", handler.GetLeaveRequest)
		router.Post("/leave-requests/{id}/decision", handler.DecideLeaveRequest)
		router.Post("/leave-requests/{id}/cancel", handler.CancelLeaveRequest)
		router.Get("/calendar", handler.GetCompanyCalendar)
	})

	AfterEach(func() {
		Expect(dbtest.Close(f.db)).To(Succeed())
	})

	as := func(u *internal.User) { principal = u }

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	submit := func() *leaverequest.LeaveRequest {
		as(&internal.User{ID: f.employee.ID, Role: internal.RoleEmployee, DepartmentID: &f.engineering.ID})
		body := `{"leave_type_id":` + idStr(f.annual.ID) + `,"start_date":"2024-06-10","end_date":"2024-06-14"}`
		w := do(http.MethodPost, "/leave-requests", body)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var lr leaverequest.LeaveRequest
		Expect(json.NewDecoder(w.Body).Decode(&lr)).To(Succeed())
		return &lr
	}

	It("walks a request from submission to approval", func() {
		lr := submit()
		Expect(lr.Status).To(Equal(leaverequest.StatusPending))

		as(&internal.User{ID: f.manager.ID, Role: internal.RoleManager, DepartmentID: &f.engineering.ID})
		w := do(http.MethodPost, "/leave-requests/"+idStr(lr.ID)+"/decision", `{"status":"APPROVED"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPost, "/leave-requests/"+idStr(lr.ID)+"/decision", `{"status":"APPROVED"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("hides a request from unrelated employees", func() {
		lr := submit()

		as(&internal.User{ID: f.outsider.ID, Role: internal.RoleManager, DepartmentID: &f.operations.ID})
		Expect(do(http.MethodGet, "/leave-requests/"+idStr(lr.ID), "").Code).To(Equal(http.StatusForbidden))

		as(&internal.User{ID: f.manager.ID, Role: internal.RoleManager, DepartmentID: &f.engineering.ID})
		Expect(do(http.MethodGet, "/leave-requests/"+idStr(lr.ID), "").Code).To(Equal(http.StatusOK))
	})

	It("lets only the owner cancel", func() {
		lr := submit()

		as(&internal.User{ID: f.manager.ID, Role: internal.RoleManager, DepartmentID: &f.engineering.ID})
		Expect(do(http.MethodPost, "/leave-requests/"+idStr(lr.ID)+"/cancel", "").Code).To(Equal(http.StatusForbidden))

		as(&internal.User{ID: f.employee.ID, Role: internal.RoleEmployee, DepartmentID: &f.engineering.ID})
		Expect(do(http.MethodPost, "/leave-requests/"+idStr(lr.ID)+"/cancel", "").Code).To(Equal(http.StatusOK))
	})

	It("limits department listings to the caller's department", func() {
		submit()

		as(&internal.User{ID: f.outsider.ID, Role: internal.RoleManager, DepartmentID: &f.operations.ID})
		Expect(do(http.MethodGet, "/leave-requests?department_id="+idStr(f.engineering.ID), "").Code).To(Equal(http.StatusForbidden))

		as(&internal.User{ID: f.manager.ID, Role: internal.RoleManager, DepartmentID: &f.engineering.ID})
		w := do(http.MethodGet, "/leave-requests?department_id="+idStr(f.engineering.ID)+"&status=PENDING", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var response leaverequest.LeaveRequestsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.LeaveRequests).To(HaveLen(1))
	})

	It("rejects a malformed calendar month", func() {
		as(&internal.User{ID: f.employee.ID, Role: internal.RoleEmployee})
		Expect(do(http.MethodGet, "/calendar?month=june", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/calendar?month=6", "").Code).To(Equal(http.StatusOK))
	})
})
