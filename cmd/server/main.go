package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/alerts"
	"github.com/soaringjerry/Scamwatch/internal/api"
	"github.com/soaringjerry/Scamwatch/internal/config"
	"github.com/soaringjerry/Scamwatch/internal/logging"
	"github.com/soaringjerry/Scamwatch/internal/middleware"
	"github.com/soaringjerry/Scamwatch/internal/services"
	"github.com/soaringjerry/Scamwatch/internal/sessions"
	"github.com/soaringjerry/Scamwatch/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		logging.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. Every resource it opens is released
// before it returns, including on error.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	middleware.SetSecret(cfg.JWTSecret)
	if err := middleware.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.TwilioAuthToken == "" {
		logging.Warn("SCAMWATCH_TWILIO_AUTH_TOKEN not set; whatsapp webhook rejects all requests")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, closeStore, err := openStore(cfg.DBPath, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	var sessionStore services.SessionStore
	if cfg.RedisURL != "" {
		rs, err := sessions.NewRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
		sessionStore = rs
		logging.Info("wizard sessions in redis")
	} else {
		mem := sessions.NewMemory()
		mem.Start(ctx, time.Minute)
		sessionStore = mem
	}

	router := api.NewRouterWithStore(store, api.Options{
		HashKey:         cfg.HashKey,
		SubmitPerMinute: cfg.SubmitPerMinute,
		SubmitBurst:     cfg.SubmitBurst,
		Sessions:        sessionStore,
		SessionTTL:      cfg.SessionTTL,
		TwilioAuthToken: cfg.TwilioAuthToken,
		PublicURL:       cfg.PublicURL,
	})
	go router.Sweeper().Run(ctx, cfg.SweepInterval)
	router.Limiter().Start(ctx, 5*time.Minute)
	router.WebhookLimiter().Start(ctx, 5*time.Minute)

	if len(cfg.AlertFeeds) > 0 {
		sources, err := alerts.ParseSources(cfg.AlertFeeds)
		if err != nil {
			return fmt.Errorf("alert feeds: %w", err)
		}
		go alerts.NewPoller(store, sources).Run(ctx, cfg.AlertInterval)
		logging.Info("alert poller started", "feeds", len(sources), "interval", cfg.AlertInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("shutdown", "err", err)
		}
	}()

	logging.Info("Scamwatch server listening", "addr", cfg.Addr, "commit", cfg.Commit)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	logging.Info("server stopped")
	return nil
}

func newHandler(cfg config.Config, router *api.Router) http.Handler {
	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Scamwatch API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return middleware.RequestLogger(
		middleware.SecureHeaders(
			middleware.CORS(
				middleware.NoStore(
					middleware.WithAuth(
						middleware.LocaleMiddleware(mux))))))
}
