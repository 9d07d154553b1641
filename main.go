package main

import (
	"context"
	"errors"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"trailbot/config"
	"trailbot/internal/adapters/binanceclient"
	"trailbot/internal/adapters/console"
	"trailbot/internal/adapters/logger"
	"trailbot/internal/adapters/metrics"
	"trailbot/internal/adapters/paper"
	"trailbot/internal/adapters/sqlite"
	"trailbot/internal/app"
	"trailbot/internal/domain"
	"trailbot/internal/pkg/symbol"
	"trailbot/internal/ports"
	"trailbot/internal/strategy/strategies"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// The loop stops at the top of its next cycle once a signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error(context.Background(), err, "Trading bot exited with error")
		stop()
		log.Fatalf("FATAL: %v", err)
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

func run(ctx context.Context, cfg *config.Config, appLogger ports.Logger) error {
	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized", map[string]interface{}{"path": cfg.DBPath})

	// 4. Initialize Gateway
	gateway, err := newGateway(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize gateway: %w", err)
	}
	appLogger.Info(ctx, "Gateway initialized", map[string]interface{}{"mode": cfg.Mode})

	// 5. Initialize Strategy
	strat, err := strategies.New(cfg.Strategy, cfg.StrategyConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize trading strategy: %w", err)
	}
	appLogger.Info(ctx, "Trading strategy initialized", map[string]interface{}{"strategy": strat.Name(), "requiredDataPoints": strat.RequiredDataPoints()})

	// 6. Initialize Metrics
	var (
		botMetrics ports.Metrics = metrics.Nop{}
		prom       *metrics.Prometheus
	)
	if cfg.MetricsAddr != "" {
		prom = metrics.NewPrometheus(map[string]string{"symbol": cfg.Symbol, "mode": string(cfg.Mode)})
		botMetrics = prom
	}

	// 7. Initialize Application Service
	term := console.NewTerminal(os.Stdout)
	defer term.Close()
	history := console.NewBuffer(console.DefaultMaxLines)

	tradingService, err := app.NewTradingService(cfg, appLogger, console.Tee{term, history}, gateway, repo, strat, botMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize trading service: %w", err)
	}
	appLogger.Info(ctx, "Trading service initialized")

	var metricsSrv *http.Server
	if prom != nil {
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.NewRouter(prom, tradingService.Position, history.Text),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	// 8. Run the loop and the metrics endpoint until the loop returns
	group, groupCtx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})

	if metricsSrv != nil {
		group.Go(func() error {
			appLogger.Info(groupCtx, "Metrics endpoint listening", map[string]interface{}{"addr": cfg.MetricsAddr})
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
			case <-loopDone:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	group.Go(func() error {
		defer close(loopDone)
		return tradingService.Run(groupCtx)
	})

	return group.Wait()
}

// newGateway selects the order execution backend for the configured mode.
func newGateway(ctx context.Context, cfg *config.Config, appLogger ports.Logger) (ports.Gateway, error) {
	switch cfg.Mode {
	case domain.ModePaper:
		// Live public prices, local fills.
		market, err := binanceclient.New(binanceclient.Config{Logger: appLogger})
		if err != nil {
			return nil, err
		}
		if err := pingExchange(ctx, cfg, market); err != nil {
			return nil, err
		}
		return paper.New(paper.Config{
			Market:       market,
			Logger:       appLogger,
			QuoteAsset:   symbol.Parse(cfg.Symbol).Quote,
			QuoteBalance: cfg.PaperBalance,
			LotStep:      cfg.PaperLotStep,
		})
	case domain.ModeReal, domain.ModeTestnet:
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.Mode == domain.ModeTestnet,
			Logger:     appLogger,
		})
		if err != nil {
			return nil, err
		}
		if err := pingExchange(ctx, cfg, client); err != nil {
			return nil, err
		}
		syncCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
		if err := client.SetServerTime(syncCtx); err != nil {
			appLogger.Warn(ctx, "Could not synchronize server time, continuing with local clock", map[string]interface{}{"error": err.Error()})
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unsupported mode %q", ports.ErrConfigurationError, cfg.Mode)
	}
}

// pingExchange fails startup when the configured endpoint is unreachable.
func pingExchange(ctx context.Context, cfg *config.Config, client *binanceclient.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return fmt.Errorf("exchange endpoint unreachable: %w", err)
	}
	return nil
}
