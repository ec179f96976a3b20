package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eddiespino/aliento-pay/delegation"
	"github.com/eddiespino/aliento-pay/distribution"
	"github.com/eddiespino/aliento-pay/payment/store/pgxstore"
	"github.com/eddiespino/aliento-pay/pkg/hiveapi"
	"github.com/eddiespino/aliento-pay/pkg/logger"
	"github.com/eddiespino/aliento-pay/pkg/pgxdb"
	"github.com/eddiespino/aliento-pay/rewards"
	"github.com/eddiespino/aliento-pay/vests"
	"github.com/eddiespino/aliento-pay/web/config"
	"github.com/eddiespino/aliento-pay/web/handler"
)

var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Aliento Pay API starting",
		slog.String("version", version),
		slog.String("date", date),
		slog.String("account", cfg.HiveAccount),
	)

	// Initialize database connection
	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize payment store
	store, storeCloser := pgxstore.New(db)
	defer storeCloser()

	// Distribution preview pipeline over the Hive node
	calculator := newCalculator(cfg, log)

	// Create HTTP server
	mux := http.NewServeMux()

	handler.NewGetPayments(store).AddRoutes(mux)
	handler.NewGetPayment(store).AddRoutes(mux)
	handler.NewGetBatch(store).AddRoutes(mux)
	handler.NewPostBatchResult(store).AddRoutes(mux)
	handler.NewGetDistributionPreview(calculator).AddRoutes(mux)

	// Wrap with logging middleware
	loggedMux := logger.NewMiddleware(log)(mux)

	// Create server address
	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)

	server := &http.Server{
		Addr:    addr,
		Handler: loggedMux,
	}

	// Start server in a goroutine
	go func() {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.ErrorContext(ctx, "Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.InfoContext(ctx, "Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Server exited gracefully")
}

// newCalculator wires the Hive client, the ratio cache, the delegation
// history reader and the reward aggregator into a distribution calculator.
func newCalculator(cfg config.Config, log *slog.Logger) *distribution.Calculator {
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	hive := hiveapi.NewClientWithHTTP(httpClient, cfg.HiveNodeURL)

	ratioCache := vests.NewRatioCache(vests.NewHiveRatioSource(hive))
	converter := vests.NewConverter(ratioCache)

	history := delegation.NewHistory(hive, delegation.WithLogger(log))
	rewardSource := rewards.NewHiveSource(hive, rewards.WithSourceLogger(log))
	aggregator := rewards.NewAggregator(rewardSource, converter)

	return distribution.NewCalculator(
		cfg.HiveAccount,
		history,
		converter,
		aggregator,
		distribution.WithMemo(cfg.PaymentMemo),
		distribution.WithPercentageConfig(rewards.PercentageConfig{
			Base:        cfg.PercentageBase,
			Min:         cfg.PercentageMin,
			Max:         cfg.PercentageMax,
			FullScaleHP: cfg.PercentageFullScale,
		}),
	)
}
