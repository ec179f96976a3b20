package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eddiespino/aliento-pay/cmd/payout/config"
	"github.com/eddiespino/aliento-pay/delegation"
	"github.com/eddiespino/aliento-pay/distribution"
	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/payment/store/pgxstore"
	"github.com/eddiespino/aliento-pay/pkg/hiveapi"
	"github.com/eddiespino/aliento-pay/pkg/logger"
	"github.com/eddiespino/aliento-pay/pkg/pgxdb"
	"github.com/eddiespino/aliento-pay/rewards"
	"github.com/eddiespino/aliento-pay/vests"
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

	// Prepare context with signal handling and an overall deadline
	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	log.InfoContext(ctx, "Starting payout planner",
		slog.String("account", cfg.HiveAccount),
		slog.String("period", cfg.PeriodSelector),
		slog.Int("lookbackDays", cfg.LookbackDays),
		slog.Bool("dryRun", cfg.DryRun),
	)

	// Run the distribution calculation against the Hive node
	calculator := newCalculator(cfg, log)

	output, err := calculator.Calculate(ctx, filtersFromConfig(cfg), distribution.FailOnZeroTotal)
	if err != nil {
		log.ErrorContext(ctx, "Distribution calculation failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Distribution calculated",
		slog.Int("delegators", len(output.Delegators)),
		slog.Float64("totalHP", output.TotalHP),
		slog.Float64("totalDistributed", output.TotalDistributed),
		slog.Int("eventsProcessed", output.EventsProcessed),
	)

	// Shape the output into pending payment batches
	batches, err := planBatches(cfg, output)
	if err != nil {
		log.ErrorContext(ctx, "Payment planning failed", slog.Any("error", err))
		os.Exit(1)
	}

	for _, b := range batches {
		log.InfoContext(ctx, "Batch planned",
			slog.String("batchID", b.ID),
			slog.Int("payments", len(b.Payments)),
			slog.Float64("amount", b.TotalAmount()),
		)
	}

	if cfg.DryRun {
		log.InfoContext(ctx, "Dry run, nothing persisted", slog.Int("batches", len(batches)))
		return
	}

	// Persist the plan; the wallet picks pending batches up for signing
	if err := persistBatches(ctx, cfg, batches); err != nil {
		log.ErrorContext(ctx, "Failed to persist batches", slog.Any("error", err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Payout plan persisted", slog.Int("batches", len(batches)))
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

// filtersFromConfig maps environment configuration to distribution filters
func filtersFromConfig(cfg config.Config) distribution.Filters {
	filters := distribution.Filters{
		LookbackDays:       cfg.LookbackDays,
		MinimumHP:          cfg.MinimumHP,
		ExcludedDelegators: cfg.ExcludedDelegators,
		PeriodSelector:     cfg.PeriodSelector,
	}
	if cfg.ExplicitPool > 0 {
		pool := cfg.ExplicitPool
		filters.ExplicitPoolValue = &pool
	}
	return filters
}

// planBatches turns calculated shares into pending payment batches
func planBatches(cfg config.Config, output distribution.Output) ([]*payment.Batch, error) {
	calculated := make([]distribution.CalculatedPayment, 0, len(output.Delegators))
	for _, share := range output.Delegators {
		calculated = append(calculated, distribution.CalculatedPayment{
			Recipient:  share.Delegator,
			WeightHP:   share.HP,
			Percentage: share.Percentage,
			Amount:     share.Amount,
			Memo:       cfg.PaymentMemo,
		})
	}

	now := time.Now()
	payments, err := payment.FromCalculated(cfg.HiveAccount, payment.DefaultCurrency, calculated, now)
	if err != nil {
		return nil, err
	}
	return payment.ToBatches(cfg.HiveAccount, payments, cfg.BatchSize, now)
}

// persistBatches saves each planned batch through the payment store
func persistBatches(ctx context.Context, cfg config.Config, batches []*payment.Batch) error {
	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	store, storeCloser := pgxstore.New(db)
	defer storeCloser()

	for _, b := range batches {
		if err := store.SaveBatch(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
