package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rpggio/groupbite/internal/auth"
	"github.com/rpggio/groupbite/internal/config"
	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/swipe"
	"github.com/rpggio/groupbite/internal/logging"
	"github.com/rpggio/groupbite/internal/mcp"
	"github.com/rpggio/groupbite/internal/metrics"
	"github.com/rpggio/groupbite/internal/places"
	"github.com/rpggio/groupbite/internal/redisstore"
	"github.com/rpggio/groupbite/internal/sqlite"
	"github.com/rpggio/groupbite/internal/transport"
	"github.com/rpggio/groupbite/internal/watch"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		file, err := logging.OpenFile(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = file
		}
	}
	logger := logging.New(logWriter, cfg.Log.Level, cfg.Log.Format)

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	hub := watch.NewHub(logger, watch.WithDropHook(m.Dropped))

	votes, closeVotes, err := openVoteStore(cfg, db, logger)
	if err != nil {
		logger.Error("failed to open vote store", "backend", cfg.Votes.Backend, "error", err)
		os.Exit(1)
	}
	defer closeVotes()

	source := places.NewAdapter(places.Config{
		APIKey:        cfg.Places.APIKey,
		BaseURL:       cfg.Places.BaseURL,
		Timeout:       cfg.Places.Timeout,
		MaxCandidates: cfg.Places.MaxCandidates,
		MaxPages:      cfg.Places.MaxPages,
		DefaultOrigin: &candidate.Coordinate{
			Lat: cfg.Places.DefaultLat,
			Lng: cfg.Places.DefaultLng,
		},
		FallbackUnfilteredOnEmpty: cfg.Places.FallbackUnfilteredOnEmpty,
	}, logger, places.WithFallbackHook(m.Fallback))
	if cfg.Places.APIKey == "" {
		logger.Warn("places API key not set, serving fallback candidates")
	}

	groupRepo := sqlite.NewGroupRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	swipeRepo := sqlite.NewSwipeRepository(db)

	groupSvc := group.NewService(groupRepo, logger)
	sessionSvc := session.NewService(sessionRepo, votes, groupSvc, source, logger,
		session.WithPublisher(hub),
		session.WithObserver(m),
	)
	swipeSvc := swipe.NewService(swipeRepo, sessionRepo, logger)

	resolver := auth.Chain{sqlite.NewAPIKeyRepository(db)}
	if cfg.Auth.JWTSecret != "" {
		resolver = append(resolver, auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTDuration))
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Groups:   groupSvc,
			Sessions: sessionSvc,
			Swipes:   swipeSvc,
		},
		Resolver:      resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	opts := transport.Options{
		MCP:         mcpHandler,
		Metrics:     m.Handler(),
		Watch:       transport.NewWatchHandler(sessionSvc, hub, cfg.Server.CORSOrigins, logger),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	}
	if cfg.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(resolver)
	}
	router := transport.NewServer(mcp.NewHandler(groupSvc, sessionSvc, swipeSvc), opts)

	runHTTPMode(logger, router, cfg.Server.Host, cfg.Server.Port, cfg.Auth.Enabled)
}

func openVoteStore(cfg config.Config, db *sqlite.DB, logger *slog.Logger) (session.VoteStore, func(), error) {
	if cfg.Votes.Backend != "redis" {
		return sqlite.NewVoteRepository(db), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := redisstore.Connect(ctx, redisstore.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("vote tables stored in redis", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)

	store := redisstore.NewVoteStore(rdb, redisstore.WithPrefix(cfg.Redis.KeyPrefix))
	return store, func() { _ = rdb.Close() }, nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, host string, port int, authEnabled bool) {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "auth", authEnabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
