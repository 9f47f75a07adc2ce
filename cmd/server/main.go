package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/admin"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/blacklist"
	"github.com/Zhouyi071021/campus-circle/internal/cache"
	"github.com/Zhouyi071021/campus-circle/internal/chat"
	"github.com/Zhouyi071021/campus-circle/internal/config"
	"github.com/Zhouyi071021/campus-circle/internal/db"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/job"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	myMiddleware "github.com/Zhouyi071021/campus-circle/internal/middleware"
	"github.com/Zhouyi071021/campus-circle/internal/store"
	"github.com/Zhouyi071021/campus-circle/internal/upload"
	"github.com/Zhouyi071021/campus-circle/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config & logging
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Platform: PostgreSQL, Redis, object storage
	database, err := db.NewDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info(ctx, "connected to postgres")

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	log.Info(ctx, "database schema up to date")

	rdb, err := cache.Open(ctx, cfg.RedisAddr, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	storage, err := upload.NewS3Storage(ctx, cfg)
	if err != nil {
		return err
	}

	// 3. Services
	repos := store.NewPostgresManager()
	tx := dbx.NewTxRunner(database.Conn)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	userService := user.NewService(database.Conn, tx, repos, auth.NewHasher(auth.DefaultCost), tokens, log)
	blacklistService := blacklist.NewService(database.Conn, tx, repos, log)
	chatService := chat.NewService(database.Conn, tx, repos, log)
	adminService := admin.NewService(database.Conn, tx, repos, log)

	// 4. Realtime fan-out
	hub := chat.NewHub(rdb.Client, log)
	go hub.Run(ctx)
	if err := hub.SubscribeToRedis(ctx); err != nil {
		return err
	}
	chatService.SetPublisher(hub)

	// 5. Scheduled cleanup
	scheduler := job.NewScheduler(log)
	if err := job.Schedule(scheduler, config.CleanupSchedule, job.NewPostCleanupJob(database.Conn, repos, log)); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	// 6. HTTP
	router := newRouter(handlers{
		auth:         myMiddleware.NewAuthMiddleware(tokens),
		loginLimiter: myMiddleware.NewRateLimiter(rdb.Client, "login", cfg.LoginRateLimit, time.Minute, log),
		users:        user.NewHandler(userService),
		blacklist:    blacklist.NewHandler(blacklistService),
		chat:         chat.NewHandler(chatService, hub, log),
		admin:        admin.NewHandler(adminService),
		upload:       upload.NewHandler(storage, cfg.UploadMaxBytes, log),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
