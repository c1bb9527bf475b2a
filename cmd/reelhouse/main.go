package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelhouse/reelhouse/internal/admins"
	"github.com/reelhouse/reelhouse/internal/app"
	"github.com/reelhouse/reelhouse/internal/audit"
	"github.com/reelhouse/reelhouse/internal/auth"
	"github.com/reelhouse/reelhouse/internal/catalog/movies"
	"github.com/reelhouse/reelhouse/internal/catalog/previews"
	"github.com/reelhouse/reelhouse/internal/catalog/tags"
	"github.com/reelhouse/reelhouse/internal/chat"
	"github.com/reelhouse/reelhouse/internal/members"
	"github.com/reelhouse/reelhouse/internal/observability"
	"github.com/reelhouse/reelhouse/internal/platform/cache"
	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/platform/storage"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Sessions and chat both live in Redis; without it nothing works.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	adminSessions := shared.NewSessionManager(redisClient, shared.KindAdmin, "reelhouse_admin", cfg.AdminSessionTTL, cfg.IsProduction())
	memberSessions := shared.NewSessionManager(redisClient, shared.KindMember, "reelhouse_member", cfg.MemberSessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	files := storage.NewDisk(cfg.UploadDir)
	metrics := observability.NewMetrics()

	recorder := audit.NewRecorder(pool)
	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	rbacStore := rbac.NewPGStore(pool)
	rbacService := rbac.NewService(rbacStore, pool, recorder)
	rbacHandler := rbac.NewHandler(logger, rbacService)

	gate := rbac.Gate{
		Authorizer: rbacService,
		Logger:     logger,
		LoginPath:  "/admin/login",
		Denials:    metrics,
	}
	memberGate := rbac.MemberGate{LoginPath: "/login"}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, recorder)
	authHandler := auth.NewHandler(logger, authService, adminSessions)

	adminsRepo := admins.NewRepository(pool)
	adminsService := admins.NewService(adminsRepo, pool, recorder)
	adminsHandler := admins.NewHandler(logger, adminsService)

	tagsRepo := tags.NewRepository(pool)
	tagsService := tags.NewService(tagsRepo, pool, recorder)
	tagsHandler := tags.NewHandler(logger, tagsService)

	moviesRepo := movies.NewRepository(pool)
	moviesService := movies.NewService(moviesRepo, pool, recorder, files)
	moviesHandler := movies.NewHandler(logger, moviesService)

	previewsRepo := previews.NewRepository(pool)
	previewsService := previews.NewService(previewsRepo, pool, recorder, files)
	previewsHandler := previews.NewHandler(logger, previewsService)

	membersRepo := members.NewRepository(pool)
	commentsRepo := members.NewCommentRepository(pool)
	favoritesRepo := members.NewFavoriteRepository(pool)
	membersService := members.NewService(membersRepo, commentsRepo, favoritesRepo, pool, recorder, recorder, files)
	membersHandler := members.NewHandler(logger, membersService, auditService, memberSessions)
	adminMembers := members.NewAdminHandler(logger, membersService)

	chatQueue := chat.NewQueue(redisClient)
	chatHandler := chat.NewHandler(logger, chatQueue)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AdminSessions:  adminSessions,
		MemberSessions: memberSessions,
		CSRFManager:    csrfManager,
		Gate:           gate,
		MemberGate:     memberGate,
		AuthHandler:    authHandler,
		RBACHandler:    rbacHandler,
		AdminsHandler:  adminsHandler,
		AuditHandler:   auditHandler,
		TagsHandler:    tagsHandler,
		MoviesHandler:  moviesHandler,
		PreviewHandler: previewsHandler,
		MembersHandler: membersHandler,
		AdminMembers:   adminMembers,
		ChatHandler:    chatHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
