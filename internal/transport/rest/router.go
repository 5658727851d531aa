package rest

import (
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/accrual"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	"github.com/frahmantamala/leave-management/internal/holiday"
	"github.com/frahmantamala/leave-management/internal/leaverequest"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/notification"
	"github.com/frahmantamala/leave-management/internal/report"
	"github.com/frahmantamala/leave-management/internal/scheduler"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
	"github.com/frahmantamala/leave-management/internal/user"
)

type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	LeaveType    *leavetype.Handler
	Balance      *balance.Handler
	Accrual      *accrual.Handler
	CarryForward *carryforward.Handler
	LeaveRequest *leaverequest.Handler
	Holiday      *holiday.Handler
	Notification *notification.Handler
	Report       *report.Handler
	Scheduler    *scheduler.Handler
}

type Options struct {
	AllowedOrigins string
	OpenAPI        *openapi3.T
	OpenAPISpec    []byte
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, opts Options, logger *slog.Logger) error {
	healthHandler := NewHealthHandler(db)
	rbac := auth.NewRBACAuthorization(logger)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(opts.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	var validate func(http.Handler) http.Handler
	if opts.OpenAPI != nil {
		v, err := middleware.OpenAPIValidator(opts.OpenAPI, logger)
		if err != nil {
			return err
		}
		validate = v
	}

	router.Route("/api/v1", func(r chi.Router) {
		if validate != nil {
			r.Use(validate)
		}

		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Get("/departments", h.User.GetDepartments)

			pr.Route("/leave-types", func(lr chi.Router) {
				lr.Get("/", h.LeaveType.GetLeaveTypes)
				lr.Get("/{id}", h.LeaveType.GetLeaveType)
				lr.With(rbac.Require(internal.PermManageLeaveTypes)).Post("/", h.LeaveType.CreateLeaveType)
				lr.With(rbac.Require(internal.PermManageLeaveTypes)).Patch("/{id}", h.LeaveType.UpdateLeaveType)
			})

			pr.Get("/balances/me", h.Balance.GetBalances)
			pr.Get("/balances/{id}", h.Balance.GetBalance)
			pr.Get("/balances/{id}/allowance", h.Balance.GetTotalAllowance)
			pr.Get("/balances/{id}/carry-forwards", h.CarryForward.GetBalanceHistory)
			pr.Get("/balances/{id}/carry-forwards/total", h.CarryForward.GetBalanceTotal)
			pr.Get("/employees/{employeeID}/balances", h.Balance.GetBalances)
			pr.Get("/employees/{employeeID}/balances/statement.pdf", h.Report.GetBalanceStatement)
			pr.Group(func(mr chi.Router) {
				mr.Use(rbac.Require(internal.PermManageBalances))
				mr.Get("/balances/exceeding-max", h.Balance.GetExceedingMaxBalance)
				mr.Post("/balances", h.Balance.CreateBalance)
				mr.Post("/employees/{employeeID}/balances/initialize", h.Balance.InitializeBalances)
				mr.Patch("/balances/{id}/max", h.Balance.SetMaxBalance)
				mr.Patch("/balances/{id}/accrual-eligibility", h.Balance.UpdateAccrualEligibility)
				mr.Post("/balances/{id}/adjust", h.Balance.AdjustBalance)
			})

			pr.Route("/accruals", func(ar chi.Router) {
				ar.Use(rbac.Require(internal.PermRunAccruals))
				ar.Get("/", h.Accrual.GetAccruals)
				ar.Get("/summary", h.Accrual.GetSummary)
				ar.Get("/processed", h.Accrual.GetProcessed)
				ar.Get("/periods/{period}", h.Accrual.GetPeriodDetails)
				ar.Post("/process-monthly", h.Accrual.ProcessMonthly)
				ar.Post("/employees/{employeeID}/process-monthly", h.Accrual.ProcessEmployeeMonthly)
				ar.Post("/employees/{employeeID}/process-yearly", h.Accrual.ProcessEmployeeYearly)
			})

			pr.Route("/carry-forwards", func(cr chi.Router) {
				cr.Use(rbac.Require(internal.PermRunCarryForward))
				cr.Get("/", h.CarryForward.GetHistory)
				cr.Get("/preview", h.CarryForward.GetPreview)
				cr.Post("/process", h.CarryForward.ProcessAnnual)
				cr.Post("/employees/{employeeID}", h.CarryForward.ProcessEmployee)
			})

			pr.Route("/leave-requests", func(lr chi.Router) {
				lr.Post("/", h.LeaveRequest.SubmitLeaveRequest)
				lr.Get("/", h.LeaveRequest.GetLeaveRequests)
				lr.Get("/me", h.LeaveRequest.GetMyLeaveRequests)
				lr.Get("/managed", h.LeaveRequest.GetManagedLeaveRequests)
				lr.Get("/{id}", h.LeaveRequest.GetLeaveRequest)
				lr.With(rbac.Require(internal.PermApproveLeave)).Patch("/{id}/decision", h.LeaveRequest.DecideLeaveRequest)
				lr.Patch("/{id}/cancel", h.LeaveRequest.CancelLeaveRequest)
			})
			pr.Get("/calendar", h.LeaveRequest.GetCompanyCalendar)

			pr.Route("/holidays", func(hr chi.Router) {
				hr.Get("/", h.Holiday.GetHolidays)
				hr.Get("/{id}", h.Holiday.GetHoliday)
				hr.Group(func(mr chi.Router) {
					mr.Use(rbac.Require(internal.PermManageHolidays))
					mr.Post("/", h.Holiday.CreateHoliday)
					mr.Patch("/{id}", h.Holiday.UpdateHoliday)
					mr.Delete("/{id}", h.Holiday.DeleteHoliday)
				})
			})

			pr.Get("/notifications", h.Notification.GetNotifications)
			pr.Patch("/notifications/{id}/read", h.Notification.MarkNotificationRead)

			pr.With(rbac.Require(internal.PermRunAccruals, internal.PermRunCarryForward)).Get("/jobs", h.Scheduler.GetJobRuns)
		})
	})
	return nil
}
