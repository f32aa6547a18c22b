package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/interview-controller/internal/api"
	"github.com/danielpatrickdp/interview-controller/internal/archive"
	"github.com/danielpatrickdp/interview-controller/internal/behavior"
	"github.com/danielpatrickdp/interview-controller/internal/config"
	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
	"github.com/danielpatrickdp/interview-controller/internal/logging"
	"github.com/danielpatrickdp/interview-controller/internal/monitor"
	"github.com/danielpatrickdp/interview-controller/internal/orchestrator"
	"github.com/danielpatrickdp/interview-controller/internal/provider"
	"github.com/danielpatrickdp/interview-controller/internal/scoring"
	"github.com/danielpatrickdp/interview-controller/internal/session"
	"github.com/danielpatrickdp/interview-controller/internal/vision"
)

const (
	healthService        = "interviewd"
	monitorHealthService = "interviewd.monitor"
)

// #region commands

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and gRPC health endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration and print the effective settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		redacted := *cfg
		redacted.Providers.Gemini.APIKey = redact(cfg.Providers.Gemini.APIKey)
		redacted.Providers.OpenAI.APIKey = redact(cfg.Providers.OpenAI.APIKey)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(redacted)
	},
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "***"
}

// #endregion commands

// #region serve

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	lg := logging.Component(log, "interviewd")

	store, err := archive.Open(ctx, cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	chain, err := buildProviders(ctx, cfg, logging.Component(log, "provider"))
	if err != nil {
		return err
	}
	if chain.Len() == 0 {
		lg.Warn("no inference provider configured; replies will degrade")
	}

	pool := evaluator.NewPool(chain, scoring.NewScorer(cfg.Scoring), logging.Component(log, "evaluator"))
	monitors, err := buildMonitorFactory(ctx, cfg, store, log)
	if err != nil {
		return err
	}

	orch := orchestrator.New(pool, orchestrator.Config{
		AwaitEvaluators: cfg.Session.AwaitEvaluators,
		EndTimeout:      cfg.Session.EndTimeout,
		IdleTTL:         cfg.Session.IdleTTL,
		SweepInterval:   cfg.Session.SweepInterval,
		StuckIdle:       cfg.Session.StuckIdle,
		ContextTurns:    orchestrator.DefaultConfig().ContextTurns,
	}, logging.Component(log, "orchestrator"),
		orchestrator.WithArchive(store),
		orchestrator.WithAuditor(logging.NewAuditLog(store.DB())),
		orchestrator.WithMonitors(monitors),
	)
	defer orch.Shutdown()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(orch, api.DefaultConfig(), logging.Component(log, "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	monitorStatus := healthpb.HealthCheckResponse_NOT_SERVING
	if monitors != nil {
		monitorStatus = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(monitorHealthService, monitorStatus)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.WithField("addr", cfg.Server.Addr).Info("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", cfg.Server.GRPCAddr, err)
		}
		g.Go(func() error {
			lg.WithField("addr", cfg.Server.GRPCAddr).Info("grpc health listening")
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		orch.RunJanitor(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		hs.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return err
	})

	return g.Wait()
}

// #endregion serve

// #region wiring

// buildProviders orders Gemini ahead of OpenAI; either may be absent.
func buildProviders(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*provider.Chain, error) {
	var ps []provider.Provider
	if key := cfg.Providers.Gemini.APIKey; key != "" {
		g, err := provider.NewGemini(ctx, key, cfg.Providers.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		ps = append(ps, g)
	}
	if key := cfg.Providers.OpenAI.APIKey; key != "" {
		ps = append(ps, provider.NewOpenAI(key, cfg.Providers.OpenAI.BaseURL, cfg.Providers.OpenAI.Model))
	}
	return provider.NewChain(log, ps...), nil
}

// buildMonitorFactory returns nil when monitoring is off or the detector is
// unreachable at startup; sessions then run without a monitor.
func buildMonitorFactory(ctx context.Context, cfg *config.Config, store *archive.Store, log *logrus.Logger) (orchestrator.MonitorFactory, error) {
	mc := cfg.Monitor
	mlog := logging.Component(log, "monitor")
	if !mc.Enabled || mc.SnapshotURL == "" || mc.DetectorURL == "" {
		mlog.Info("behavior monitoring disabled")
		return nil, nil
	}

	if mc.DetectorHealth != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := vision.ProbeHealth(probeCtx, mc.DetectorHealth, "")
		cancel()
		if err != nil {
			mlog.WithError(err).Warn("detector unhealthy; behavior monitoring disabled")
			return nil, nil
		}
	}

	sink, err := monitor.NewFileSink(mc.EvidenceDir, store)
	if err != nil {
		return nil, fmt.Errorf("evidence dir: %w", err)
	}

	loopCfg := monitor.Config{
		Interval:      mc.Interval,
		MinConfidence: mc.MinConfidence,
		JPEGQuality:   mc.JPEGQuality,
		Tracker:       behavior.TrackerConfig{Threshold: mc.Threshold},
	}
	h := vision.NewHTTP(5 * time.Second)

	return func(sessionID string) session.Monitor {
		return monitor.NewLoop(sessionID,
			vision.NewSnapshotCapture(h, mc.SnapshotURL),
			vision.NewHTTPDetector(h, mc.DetectorURL),
			sink, loopCfg, mlog.WithField("session", sessionID))
	}, nil
}

// #endregion wiring
