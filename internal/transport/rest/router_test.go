package rest_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/api"
	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database/dbtest"
	"github.com/frahmantamala/leave-management/internal/holiday"
	"github.com/frahmantamala/leave-management/internal/leaverequest"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/notification"
	"github.com/frahmantamala/leave-management/internal/report"
	"github.com/frahmantamala/leave-management/internal/scheduler"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/frahmantamala/leave-management/internal/user"
)

var _ = Describe("Router", func() {
	var (
		gdb    *gorm.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		gdb, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())

		doc, err := middleware.LoadOpenAPI(context.Background(), api.Spec)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := transport.NewBaseHandler(logger)
		clk := clock.NewFixedClock(clock.Date(2025, 3, 10))

		// services stay nil: these specs never get past routing and validation
		handlers := rest.Handlers{
			Auth:         auth.NewHandler(base, nil),
			User:         user.NewHandler(base, nil),
			LeaveType:    leavetype.NewHandler(base, nil),
			Balance:      balance.NewHandler(base, nil),
			Accrual:      accrual.NewHandler(base, nil, clk),
			CarryForward: carryforward.NewHandler(base, nil, clk),
			LeaveRequest: leaverequest.NewHandler(base, nil, clk),
			Holiday:      holiday.NewHandler(base, nil, clk),
			Notification: notification.NewHandler(base, nil),
			Report:       report.NewHandler(base, nil),
			Scheduler:    scheduler.NewHandler(base, nil),
		}

		router = chi.NewRouter()
		err = rest.RegisterAllRoutes(router, sqlx.NewDb(sqlDB, "sqlite3"), handlers, rest.Options{
			AllowedOrigins: "*",
			OpenAPI:        doc,
			OpenAPISpec:    api.Spec,
		}, logger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(dbtest.Close(gdb)).To(Succeed())
	})

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("documents every API route in the OpenAPI description", func() {
		doc, err := middleware.LoadOpenAPI(context.Background(), api.Spec)
		Expect(err).NotTo(HaveOccurred())

		var routes int
		err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/v1/") {
				return nil
			}
			routes++
			path := strings.TrimSuffix(route, "/")
			item := doc.Paths.Value(path)
			Expect(item).NotTo(BeNil(), "missing path %s", path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), "missing %s %s", method, path)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(routes).To(BeNumerically(">", 50))
	})

	It("serves the raw description", func() {
		rec := serve(http.MethodGet, "/openapi.yml", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Bytes()).To(Equal(api.Spec))
	})

	It("answers ping and health", func() {
		Expect(serve(http.MethodGet, "/api/v1/ping", "").Code).To(Equal(http.StatusOK))

		rec := serve(http.MethodGet, "/api/v1/health", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"pending":0`))
	})

	It("rejects a login body missing required fields before it reaches the handler", func() {
		rec := serve(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("VALIDATION_ERROR"))
	})

	It("rejects an unknown status filter", func() {
		rec := serve(http.MethodGet, "/api/v1/leave-requests?status=SOMETIMES", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(`parameter \"status\"`))
	})

	It("requires a bearer token on protected routes", func() {
		rec := serve(http.MethodGet, "/api/v1/leave-types", "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
