package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/accrual"
	accrualPostgres "github.com/frahmantamala/leave-management/internal/accrual/postgres"
	"github.com/frahmantamala/leave-management/internal/auth"
	authPostgres "github.com/frahmantamala/leave-management/internal/auth/postgres"
	"github.com/frahmantamala/leave-management/internal/balance"
	balancePostgres "github.com/frahmantamala/leave-management/internal/balance/postgres"
	"github.com/frahmantamala/leave-management/internal/carryforward"
	carryforwardPostgres "github.com/frahmantamala/leave-management/internal/carryforward/postgres"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/holiday"
	holidayPostgres "github.com/frahmantamala/leave-management/internal/holiday/postgres"
	"github.com/frahmantamala/leave-management/internal/leaverequest"
	leaverequestPostgres "github.com/frahmantamala/leave-management/internal/leaverequest/postgres"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	leavetypePostgres "github.com/frahmantamala/leave-management/internal/leavetype/postgres"
	"github.com/frahmantamala/leave-management/internal/mailer"
	"github.com/frahmantamala/leave-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/leave-management/internal/notification/postgres"
	"github.com/frahmantamala/leave-management/internal/report"
	"github.com/frahmantamala/leave-management/internal/scheduler"
	schedulerPostgres "github.com/frahmantamala/leave-management/internal/scheduler/postgres"
	"github.com/frahmantamala/leave-management/internal/user"
	userPostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

// Dependencies holds every long lived component shared by the server and
// worker commands.
type Dependencies struct {
	Config *internal.Config
	Logger *slog.Logger
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Clock  clock.Clock

	EventBus   *events.EventBus
	Outbox     *events.OutboxWriter
	Dispatcher *events.OutboxDispatcher
	Mailer     mailer.Sender

	Auth          *auth.Service
	Users         *user.Service
	LeaveTypes    *leavetype.Service
	Holidays      *holiday.Service
	Balances      *balance.Service
	Accruals      *accrual.Service
	CarryForwards *carryforward.Service
	LeaveRequests *leaverequest.Service
	Notifications *notification.Service
	Reports       *report.Service
	Scheduler     *scheduler.Service
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	loc, err := config.Leave.Location()
	if err != nil {
		return nil, err
	}
	clk := clock.NewSystemClock(loc)

	db, err := initDB(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	privateKey, err := config.Security.GetPrivateKey()
	if err != nil {
		return nil, err
	}
	publicKey, err := config.Security.GetPublicKey()
	if err != nil {
		return nil, err
	}

	tx := database.NewTransactor(gdb)
	outbox := events.NewOutboxWriter(gdb, clk)
	eventBus := events.NewEventBus(log)

	sender := mailer.New(mailer.Config{
		Enabled:     config.Mail.Enabled,
		APIURL:      config.Mail.APIURL,
		APIKey:      config.Mail.APIKey,
		From:        config.Mail.From,
		Timeout:     config.Mail.Timeout,
		MaxWorkers:  config.Mail.MaxWorkers,
		QueueSize:   config.Mail.QueueSize,
		MaxAttempts: config.Mail.MaxAttempts,
		RetryDelay:  config.Mail.RetryDelay,
	}, log)

	tokenGen := auth.NewJWTTokenGenerator(privateKey, publicKey,
		config.Security.AccessTokenDuration, config.Security.RefreshTokenDuration, clk)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokenGen, auth.NewMemoryRevocationList(clk),
		config.Security.BCryptCost, config.Security.AccessTokenDuration, log)

	users := user.NewService(userPostgres.NewUserRepository(gdb), log)
	leaveTypes := leavetype.NewService(leavetypePostgres.NewLeaveTypeRepository(gdb), log)
	holidays := holiday.NewService(holidayPostgres.NewHolidayRepository(gdb), log)
	balances := balance.NewService(balancePostgres.NewBalanceRepository(gdb), users, leaveTypes, tx, clk, log)

	accruals := accrual.NewService(
		accrualPostgres.NewAccrualRepository(gdb),
		accrualPostgres.NewSummaryRepository(db),
		balances,
		users,
		tx,
		outbox,
		clk,
		log,
	)
	carryForwards := carryforward.NewService(
		carryforwardPostgres.NewCarryForwardRepository(gdb),
		balances,
		leaveTypes,
		users,
		outbox,
		clk,
		log,
	)
	leaveRequests := leaverequest.NewService(
		leaverequestPostgres.NewLeaveRequestRepository(gdb),
		leaverequestPostgres.NewCalendarRepository(db),
		leaveTypes,
		users,
		balances,
		holidays,
		tx,
		outbox,
		clk,
		leaverequest.Config{DeductOnApproval: config.Leave.DeductOnApproval},
		log,
	)

	notifications := notification.NewService(notificationPostgres.NewNotificationRepository(gdb), sender, clk, log)
	notification.NewEventHandler(notifications, users, log).RegisterEventHandlers(eventBus)

	dispatcher := events.NewOutboxDispatcher(gdb, eventBus, clk, events.DispatcherConfig{
		BatchSize:   config.Outbox.BatchSize,
		MaxAttempts: config.Outbox.MaxAttempts,
		BaseBackoff: config.Outbox.BaseBackoff,
		MaxBackoff:  config.Outbox.MaxBackoff,
	}, log)

	jobs := scheduler.NewService(schedulerPostgres.NewJobRunRepository(gdb), accruals, carryForwards, clk, scheduler.Config{
		AccrualDay:        config.Scheduler.AccrualDay,
		CarryForwardMonth: time.Month(config.Scheduler.CarryForwardMonth),
		CarryForwardDay:   config.Scheduler.CarryForwardDay,
		Interval:          config.Scheduler.Interval,
	}, log)

	return &Dependencies{
		Config:        config,
		Logger:        log,
		DB:            db,
		Gorm:          gdb,
		Clock:         clk,
		EventBus:      eventBus,
		Outbox:        outbox,
		Dispatcher:    dispatcher,
		Mailer:        sender,
		Auth:          authService,
		Users:         users,
		LeaveTypes:    leaveTypes,
		Holidays:      holidays,
		Balances:      balances,
		Accruals:      accruals,
		CarryForwards: carryForwards,
		LeaveRequests: leaveRequests,
		Notifications: notifications,
		Reports:       report.NewService(users, balances, accruals, carryForwards, clk, log),
		Scheduler:     jobs,
	}, nil
}

// Close drains the mail queue and releases the connection pool.
func (d *Dependencies) Close(ctx context.Context) {
	if client, ok := d.Mailer.(*mailer.Client); ok {
		client.Shutdown(ctx)
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

// initDB opens the pgx pool and retries the first ping while the database
// container is still starting.
func initDB(ctx context.Context, cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := dbConn.PingContext(ctx); err != nil {
			logger.LoggerWrapper().Warn("database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
}
