package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/attendance"
	attendancePostgres "github.com/frahmantamala/hr-portal/internal/attendance/postgres"
	"github.com/frahmantamala/hr-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/hr-portal/internal/audit/postgres"
	"github.com/frahmantamala/hr-portal/internal/auth"
	authPostgres "github.com/frahmantamala/hr-portal/internal/auth/postgres"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/internal/transport/rest"
	"github.com/frahmantamala/hr-portal/internal/transport/swagger"
	"github.com/frahmantamala/hr-portal/internal/user"
	userPostgres "github.com/frahmantamala/hr-portal/internal/user/postgres"
	"github.com/frahmantamala/hr-portal/internal/userrole"
	userrolePostgres "github.com/frahmantamala/hr-portal/internal/userrole/postgres"
	"github.com/frahmantamala/hr-portal/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	GormDB   *gorm.DB
	DB       *sqlx.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Drain(ctx); err != nil {
			deps.Logger.Error("Event bus drain error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	bus := deps.EventBus
	base := transport.NewBaseHandler(lg)

	policy, err := attendance.PolicyFromConfig(cfg.Attendance)
	if err != nil {
		return fmt.Errorf("attendance policy: %w", err)
	}

	auditService := audit.NewService(auditPostgres.NewAuditRepository(deps.GormDB), lg)
	auditService.Register(bus)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.GormDB), tokenGen, cfg.Security.BCryptCost).
		WithPublisher(bus).
		WithLogger(lg)

	handlers := rest.Handlers{
		Auth:       &auth.Handler{BaseHandler: base, Service: authService},
		RBAC:       auth.NewRBACAuthorization(lg),
		User:       &user.Handler{BaseHandler: base, Service: user.NewService(userPostgres.NewPostgresRepo(deps.DB))},
		UserRole:   userrole.NewHandler(base, userrole.NewService(userrolePostgres.NewUserRoleRepository(deps.GormDB), bus, lg)),
		Attendance: attendance.NewHandler(base, attendance.NewService(attendancePostgres.NewAttendanceRepository(deps.GormDB), policy, bus, lg)),
		Audit:      audit.NewHandler(base, auditService),
	}

	opts := rest.Options{
		APIKey:         cfg.Security.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Server.OpenAPIPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		spec, err := swagger.LoadSpec(ctx, cfg.Server.OpenAPIPath)
		if err != nil {
			lg.Warn("API documentation disabled", "path", cfg.Server.OpenAPIPath, "error", err)
		} else {
			opts.Spec = spec
		}
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, handlers, opts, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	gormDB, db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg := logger.L()
	return &Dependencies{
		Config:   config,
		GormDB:   gormDB,
		DB:       db,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
		Logger:   lg,
	}, nil
}

// initDB opens the gorm connection used by the repositories and shares its
// pool with an sqlx handle for the hand-written queries and the health probe.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	const driver = "pgx"

	gormDB, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.GetDSN()}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, driver), nil
}
