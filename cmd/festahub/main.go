package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/festahub/festahub/internal/app"
	"github.com/festahub/festahub/internal/archive"
	"github.com/festahub/festahub/internal/audit"
	"github.com/festahub/festahub/internal/auth"
	"github.com/festahub/festahub/internal/files"
	"github.com/festahub/festahub/internal/formanswers"
	"github.com/festahub/festahub/internal/forms"
	"github.com/festahub/festahub/internal/invitations"
	"github.com/festahub/festahub/internal/news"
	"github.com/festahub/festahub/internal/observability"
	"github.com/festahub/festahub/internal/platform/cache"
	"github.com/festahub/festahub/internal/platform/db"
	"github.com/festahub/festahub/internal/platform/objstore"
	"github.com/festahub/festahub/internal/projects"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
	"github.com/festahub/festahub/internal/users"
	"github.com/festahub/festahub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, 0)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := objstore.NewS3(ctx, objstore.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		logger.Error("init object store", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "festahub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	applyWindow, err := cfg.ApplyWindow()
	if err != nil {
		logger.Error("parse application period", slog.Any("error", err))
		os.Exit(1)
	}

	mailQueue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, cfg.AppBaseURL)
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	projectsRepo := projects.NewRepository(pool)
	projectsService := projects.NewService(projectsRepo, auditLogger, applyWindow)
	projectsHandler := projects.NewHandler(logger, projectsService)

	newsRepo := news.NewRepository(pool)
	newsService := news.NewService(newsRepo, auditLogger, logger)
	newsHandler := news.NewHandler(logger, newsService)

	formsRepo := forms.NewRepository(pool)
	formsService := forms.NewService(formsRepo, auditLogger)
	formsHandler := forms.NewHandler(logger, formsService)

	answersRepo := formanswers.NewRepository(pool)
	answersService := formanswers.NewService(answersRepo, formsRepo, auditLogger)
	answersHandler := formanswers.NewHandler(logger, answersService)

	invitationsRepo := invitations.NewRepository(pool)
	invitationsService := invitations.NewService(invitationsRepo, mailQueue, auditLogger, logger)
	invitationsHandler := invitations.NewHandler(logger, invitationsService)

	exporter := archive.NewExporter(store, logger)
	filesRepo := files.NewRepository(pool)
	filesService := files.NewService(filesRepo, store, exporter, auditLogger)
	filesHandler := files.NewHandler(logger, filesService)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		ReqCtx: reqctx.Middleware{
			Users:    users.NewDirectory(usersRepo),
			Projects: projects.NewDirectory(projectsRepo),
			Logger:   logger,
		},
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		ProjectsHandler:    projectsHandler,
		NewsHandler:        newsHandler,
		FormsHandler:       formsHandler,
		FormAnswersHandler: answersHandler,
		InvitationsHandler: invitationsHandler,
		FilesHandler:       filesHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		Pool:               pool,
		Redis:              redisClient,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
