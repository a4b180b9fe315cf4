package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ttakeda/budgetbot/internal/application/service"
	"github.com/ttakeda/budgetbot/internal/config"
	"github.com/ttakeda/budgetbot/internal/export"
	"github.com/ttakeda/budgetbot/internal/infrastructure/persistence/repository"
	"github.com/ttakeda/budgetbot/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/ttakeda/budgetbot/internal/interfaces/http"
	"github.com/ttakeda/budgetbot/pkg/database"
	"github.com/ttakeda/budgetbot/pkg/utils"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting budgetbot",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	// Initialize repositories
	budgetRepo := repository.NewBudgetRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	grantRepo := repository.NewGrantRepository(db.DB, logger)
	channelRepo := repository.NewChannelRepository(db.DB, logger)

	// Initialize services
	appLog := utils.NewAppLogger(logger)

	accessService := service.NewAccessService(grantRepo, cfg.Access.GlobalApproverRole, appLog)
	budgetService := service.NewBudgetService(budgetRepo, appLog)
	channelService := service.NewChannelService(channelRepo, appLog)
	auditService := service.NewAuditService(auditRepo, appLog)
	cartService := service.NewCartService(budgetRepo, requestRepo, txManager, service.CartConfig{
		IdleExpiry:         cfg.Cart.IdleExpiry,
		CheckFundsAtSubmit: cfg.Approval.CheckFundsAtSubmit,
	}, appLog)
	approvalService := service.NewApprovalService(
		requestRepo, budgetRepo, auditRepo, accessService, txManager,
		service.ApprovalConfig{AllowOverdraft: cfg.Approval.AllowOverdraft},
		appLog,
	)

	exporter := export.NewExporter(logger)

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		AdminToken:     cfg.API.AdminToken,
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
	}, cartService, approvalService, budgetService, accessService, channelService, auditService, exporter, appLog)

	// Run until interrupted, then shut down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
