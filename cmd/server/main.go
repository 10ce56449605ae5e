package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/socialdash/internal/authflow"
	"github.com/AngelCh415/socialdash/internal/config"
	"github.com/AngelCh415/socialdash/internal/dashboard"
	"github.com/AngelCh415/socialdash/internal/httpx"
	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	col := metrics.NewCollector(reg)

	client := ingest.NewClient(ingest.NewHTTPClient(cfg.HTTPTimeout), cfg)
	campaigns := store.NewCampaignStore(client.LoadCampaigns)
	views := dashboard.NewRegistry(client, campaigns, dashboard.Options{
		IdleTTL:              cfg.ViewIdleTTL,
		AllPostsLimit:        cfg.AllPostsLimit,
		WeeklyPostsLimit:     cfg.WeeklyPostsLimit,
		DefaultAvgEngagement: cfg.DefaultAvgEngagement,
	}, logger, col)
	auth := authflow.NewPoller(client, cfg.AuthPollInterval, cfg.AuthPollTimeout, logger, col)

	r := httpx.NewRouter(logger, httpx.Deps{
		Views:       views,
		Campaigns:   metrics.NewService(campaigns),
		Auth:        auth,
		Account:     client,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go views.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server",
		slog.String("port", cfg.Port),
		slog.String("upstream", cfg.UpstreamURL))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	<-drained
	auth.Close()
	views.Close()
	logger.Info("server stopped")
}
