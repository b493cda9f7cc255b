// Command hubserver runs the event fan-out hub as a standalone HTTP
// service: one process, in-memory connection registry, no persisted
// state (spec §6).
package main

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

	"github.com/rjsadow/ssehub/internal/auth"
	"github.com/rjsadow/ssehub/internal/config"
	"github.com/rjsadow/ssehub/internal/hub"
	"github.com/rjsadow/ssehub/internal/httpapi"
	"github.com/rjsadow/ssehub/internal/plugins"
	"golang.org/x/time/rate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	appConfig := config.MustLoad()

	authenticator, err := buildAuthenticator(appConfig)
	if err != nil {
		slog.Error("failed to initialize auth provider", "provider", appConfig.AuthProvider, "error", err)
		os.Exit(1)
	}

	h := hub.New(hub.Config{
		HeartbeatInterval: appConfig.HeartbeatInterval,
		ConnectionTimeout: appConfig.ConnectionTimeout,
		MaxConnections:    appConfig.MaxConnections,
		EnableHeartbeat:   appConfig.EnableHeartbeat,
	})
	h.Start()
	hub.SetDefault(h)

	app := &httpapi.App{
		Hub:               h,
		Authenticator:     authenticator,
		RequireAuthStream: appConfig.RequireAuthStream,
		RequireAuthNotify: appConfig.RequireAuthNotify,
		RateLimiter:       httpapi.NewRateLimiter(rate.Limit(appConfig.NotifyRateLimit), appConfig.NotifyRateBurst),
	}

	addr := fmt.Sprintf(":%d", appConfig.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Handler(),
	}

	go func() {
		slog.Info("event hub starting", "addr", "http://localhost"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	h.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// buildAuthenticator selects and initializes the configured auth
// provider through the global plugin registry (spec §9's
// "authentication is a deployment policy choice").
func buildAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	providerConfig := map[string]string{
		"jwt_secret": cfg.JWTSecret,
		"issuer_url": cfg.OIDCIssuerURL,
		"client_id":  cfg.OIDCClientID,
	}
	if err := plugins.Global().Initialize(context.Background(), cfg.AuthProvider, providerConfig); err != nil {
		return nil, err
	}
	return plugins.Global().Auth(), nil
}
