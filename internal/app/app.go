package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xymaxim/vpick/internal/cache"
	"github.com/xymaxim/vpick/internal/config"
	"github.com/xymaxim/vpick/internal/exec"
	"github.com/xymaxim/vpick/internal/extract"
	"github.com/xymaxim/vpick/internal/httpclient"
	"github.com/xymaxim/vpick/internal/picker"
	"github.com/xymaxim/vpick/internal/ytdlp"
)

const (
	FetchPath        = "/fetch-video"
	NetlifyFetchPath = "/.netlify/functions/fetch-video"
	HealthPath       = "/healthz"
	MetricsPath      = "/metrics"
)

type App struct {
	Config   *config.Config
	Provider extract.Provider
	Options  picker.Options
	Server   *http.Server
}

// NewApp builds an App serving picker responses from provider.
func NewApp(cfg *config.Config, provider extract.Provider) *App {
	a := &App{
		Config:   cfg,
		Provider: provider,
		Options:  picker.Options{Malformed: cfg.MalformedPolicy()},
	}
	a.Server = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
	}
	return a
}

// Handler returns the router with all routes and middleware mounted.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(a.recoverer)

	r.Group(func(r chi.Router) {
		r.Use(a.rateLimit(a.Config.Server.RateLimit))
		// Any method is accepted; only the query string matters.
		r.HandleFunc(FetchPath, a.WithError(a.FetchHandler))
		r.HandleFunc(NetlifyFetchPath, a.WithError(a.FetchHandler))
	})

	r.Get(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle(MetricsPath, promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		messages := negotiateMessages(r, a.Config.Server.Locale)
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: messages.NotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		messages := negotiateMessages(r, a.Config.Server.Locale)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Message: messages.MethodNotAllowed})
	})

	return r
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", ln.Addr().String())
		errCh <- a.Server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout())
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// SetupLogger installs the default slog logger described by cfg.
func SetupLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// NewProvider assembles the metadata provider described by cfg: yt-dlp,
// optionally auto-installed, behind the Redis cache when one is configured.
// The returned function releases the cache connection.
func NewProvider(ctx context.Context, cfg *config.Config) (extract.Provider, func() error, error) {
	ytdlpProvider := &extract.YtdlpProvider{
		Timeout:   cfg.ExtractTimeout(),
		ExtraArgs: cfg.Extract.ExtraArgs,
	}
	if cfg.Extract.InstallDir != "" {
		ytdlpProvider.Installer = &ytdlp.Installer{
			Binary:  cfg.Extract.YtdlpPath,
			Dir:     cfg.Extract.InstallDir,
			BaseURL: ytdlp.ReleasesURL,
			Client:  httpclient.New(httpclient.DefaultRetryMax, httpclient.DefaultTimeout),
		}
	} else {
		ytdlpProvider.Runner = exec.NewCommandRunner(cfg.Extract.YtdlpPath)
	}

	closer := func() error { return nil }
	var c cache.Cache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("setting up metadata cache: %w", err)
		}
		c = redisCache
		closer = redisCache.Close
	}

	return extract.NewCachedProvider(ytdlpProvider, c, cfg.CacheTTL()), closer, nil
}
