// Command rivulet-bench drives a synthetic bounded-parallel workload through
// the rivulet engine so its resilience overlays can be soak-tested outside
// of unit tests. It takes no dependency on any domain API: every item is a
// fake "unit of work" whose latency and failure rate are controlled by
// flags, via the chaos.Injector testing primitive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/rivulet"
	"github.com/ygrebnov/rivulet/chaos"
	"github.com/ygrebnov/rivulet/metrics"
	"github.com/ygrebnov/rivulet/progress"
	"github.com/ygrebnov/rivulet/retry"
)

func main() {
	var (
		items       = flag.Int("items", 1000, "number of synthetic items per scenario")
		scenarios   = flag.Int("scenarios", 3, "number of independent scenarios to run concurrently")
		concurrency = flag.Int("concurrency", 16, "MaxConcurrency per scenario")
		failureRate = flag.Float64("failure-rate", 0.1, "chaos injector failure probability per item")
		itemDelay   = flag.Duration("item-delay", 5*time.Millisecond, "chaos injector artificial per-item delay")
		maxRetries  = flag.Int("max-retries", 3, "per-item retry budget")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, runConfig{
		items:       *items,
		scenarios:   *scenarios,
		concurrency: *concurrency,
		failureRate: *failureRate,
		itemDelay:   *itemDelay,
		maxRetries:  *maxRetries,
	}); err != nil {
		logger.Error("rivulet-bench failed", "error", err)
		os.Exit(1)
	}
}

type runConfig struct {
	items       int
	scenarios   int
	concurrency int
	failureRate float64
	itemDelay   time.Duration
	maxRetries  int
}

// run fans scenarios out concurrently with an errgroup.Group, the pattern
// jonwraymond-toolops uses wherever it needs bounded concurrent calls that
// should all be cancelled the moment any one of them fails.
func run(ctx context.Context, logger *slog.Logger, cfg runConfig) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.scenarios)

	before := metrics.Default().Snapshot()

	for s := 0; s < cfg.scenarios; s++ {
		scenario := s
		g.Go(func() error {
			return runScenario(ctx, logger, scenario, cfg)
		})
	}

	err := g.Wait()

	after := metrics.Default().Snapshot()
	delta := metrics.Delta(before, after)
	logger.Info("bench complete",
		"itemsCompleted", delta.ItemsCompleted,
		"failuresTotal", delta.FailuresTotal,
		"retriesTotal", delta.RetriesTotal,
		"throttleEvents", delta.ThrottleEvents,
	)
	return err
}

func runScenario(ctx context.Context, logger *slog.Logger, scenario int, cfg runConfig) error {
	injector := chaos.New(cfg.failureRate, cfg.itemDelay)

	payload := make([]int, cfg.items)
	for i := range payload {
		payload[i] = i
	}

	reporter := progress.New(progress.Config{
		HasTotal:       true,
		TotalItems:     int64(cfg.items),
		ReportInterval: 500 * time.Millisecond,
		OnProgress: func(snap progress.Snapshot) {
			logger.Info("progress",
				"scenario", scenario,
				"completed", snap.ItemsCompleted,
				"itemsPerSecond", snap.ItemsPerSecond,
			)
		},
	})
	defer reporter.Close()

	op := func(ctx context.Context, n int) (int, error) {
		err := injector.Execute(ctx, func(ctx context.Context) error { return nil })
		if err != nil {
			return 0, err
		}
		return n * n, nil
	}

	_, err := rivulet.SelectParallel(ctx, payload, op,
		rivulet.WithMaxConcurrency(cfg.concurrency),
		rivulet.WithRetries(cfg.maxRetries, 50*time.Millisecond, retry.ExponentialJitter),
		rivulet.WithErrorMode(rivulet.CollectAndContinue),
		rivulet.WithOnComplete(func(_ rivulet.WorkItemInfo, success bool) {
			reporter.Add(1)
			if !success {
				return
			}
		}),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scenario %d: %w", scenario, err)
	}
	return nil
}
