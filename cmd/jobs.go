package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/config"
)

var (
	workerMode bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile stale checkout payments against Stripe",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"reconcile",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ReconcileInterval },
			func(s *service.ReservationService, ctx context.Context) error {
				return s.RunReconcileBatch(ctx)
			},
		)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run cleanup commands",
}

var sweepOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Cancel paid-flow reservations that never got a checkout session",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"sweep_orphans",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.SweepOrphansInterval },
			func(s *service.ReservationService, ctx context.Context) error {
				return s.RunSweepOrphansBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.AddCommand(sweepOrphansCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.ReservationService, ctx context.Context) error,
) {
	app := mustCreateApp()
	defer app.close()

	if workerMode {
		runWorker(name, intervalResolver(app.cfg), app.reservations, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(app.reservations, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	reservationService *service.ReservationService,
	fn func(s *service.ReservationService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(reservationService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(reservationService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
