package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"budgetbook/internal/amqp"
	"budgetbook/internal/config"
	"budgetbook/internal/core"
	apphttp "budgetbook/internal/http"
	applog "budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/session"
	"budgetbook/internal/store"
	"budgetbook/internal/store/memory"
	"budgetbook/internal/store/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "budgetbook",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		st    store.Store
		owner string
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()

		user, err := repo.EnsureOwner(context.Background(), cfg.OwnerEmail, cfg.OwnerName)
		if err != nil {
			logger.Error("Failed to resolve owner account", "error", err, "email", cfg.OwnerEmail)
			os.Exit(1)
		}
		st, owner = repo, user.ID
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath, "owner", cfg.OwnerEmail)
	default:
		mem := memory.New()
		user := core.User{ID: uuid.NewString(), Email: cfg.OwnerEmail, Name: cfg.OwnerName}
		mem.SignIn(user)
		st, owner = mem, user.ID
		logger.Info("Initialized memory backend", "owner", cfg.OwnerEmail)
	}

	// The AMQP publisher is optional. Without it entries are never
	// mirrored, which is fine for local setups.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err, "exchange", cfg.AMQPExchange)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - entry events will not be published")
	}

	sess := session.New(st)
	selection := services.NewSelection(time.Now())
	categories := services.NewCategoryService(st, logger.Logger)
	entries := services.NewEntryService(st, sess, categories, selection, events, logger.Logger)
	templates := services.NewTemplateService(st, sess, entries, selection, logger.Logger)
	calendar := services.NewCalendarService(st, sess, categories, selection, logger.Logger)
	dashboard := services.NewDashboardService(st, sess, categories, selection, logger.Logger)

	if cfg.SeedDefaultCategories {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := categories.AddDefaultCategories(seedCtx, owner); err != nil {
			logger.Error("Failed to seed default categories", "error", err)
			// Not fatal, categories can still be created by hand.
		}
		seedCancel()
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Entries:    entries,
		Categories: categories,
		Templates:  templates,
		Calendar:   calendar,
		Dashboard:  dashboard,
		Selection:  selection,
		Session:    sess,
		Logger:     logger,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting budgetbook server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
