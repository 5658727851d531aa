package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/api"
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
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/frahmantamala/leave-management/internal/user"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// embedWorkers runs the outbox dispatcher inside the API process so events
// flow without a separate worker deployment.
var embedWorkers bool

func startHTTPServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger

	router := chi.NewRouter()
	if err := setupRoutes(ctx, router, deps); err != nil {
		log.Error("failed to register routes", "error", err)
		os.Exit(1)
	}

	if embedWorkers {
		go deps.Dispatcher.Run(ctx, deps.Config.Outbox.Interval)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	log.Info("starting HTTP server", "address", addr, "embedded_workers", embedWorkers)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		deps.Close(shutdownCtx)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	log.Info("server stopped")
}

func setupRoutes(ctx context.Context, router *chi.Mux, deps *Dependencies) error {
	doc, err := middleware.LoadOpenAPI(ctx, api.Spec)
	if err != nil {
		return err
	}

	base := transport.NewBaseHandler(deps.Logger)
	handlers := rest.Handlers{
		Auth:         auth.NewHandler(base, deps.Auth),
		User:         user.NewHandler(base, deps.Users),
		LeaveType:    leavetype.NewHandler(base, deps.LeaveTypes),
		Balance:      balance.NewHandler(base, deps.Balances),
		Accrual:      accrual.NewHandler(base, deps.Accruals, deps.Clock),
		CarryForward: carryforward.NewHandler(base, deps.CarryForwards, deps.Clock),
		LeaveRequest: leaverequest.NewHandler(base, deps.LeaveRequests, deps.Clock),
		Holiday:      holiday.NewHandler(base, deps.Holidays, deps.Clock),
		Notification: notification.NewHandler(base, deps.Notifications),
		Report:       report.NewHandler(base, deps.Reports),
		Scheduler:    scheduler.NewHandler(base, deps.Scheduler),
	}

	return rest.RegisterAllRoutes(router, deps.DB, handlers, rest.Options{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		OpenAPI:        doc,
		OpenAPISpec:    api.Spec,
	}, deps.Logger)
}

func init() {
	httpServerCmd.Flags().BoolVar(&embedWorkers, "with-workers", false, "Run the outbox dispatcher in the server process")
}
