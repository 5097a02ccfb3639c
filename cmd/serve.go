package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/config"
	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/reconcile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker loop",
	Long: `Runs the tracker until interrupted: polls the release feed, refreshes the
air schedule, warms metadata for tracked series, refreshes download
progress and keeps the download client session alive.`,

	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("serve")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// session is established up front, the health check recovers it later
		if !engine.Client().Connect(ctx) {
			log.Warn("Download client unreachable, will keep retrying")
		}

		engine.RefreshSchedule(ctx)

		runLoop(ctx, engine, config.Config.Timers, log)
	},
}

// runLoop drives the periodic reconciliation timers until the context is
// cancelled: feed poll, schedule refresh, tracked refresh, download progress
// refresh and the client health check.
func runLoop(ctx context.Context, engine *reconcile.Engine, timers config.TimersConfiguration, log *logrus.Entry) {
	feedTicker := time.NewTicker(timers.Feed)
	defer feedTicker.Stop()
	scheduleTicker := time.NewTicker(timers.Schedule)
	defer scheduleTicker.Stop()
	trackedTicker := time.NewTicker(timers.Tracked)
	defer trackedTicker.Stop()
	downloadsTicker := time.NewTicker(timers.Downloads)
	defer downloadsTicker.Stop()
	healthTicker := time.NewTicker(timers.HealthCheck)
	defer healthTicker.Stop()

	log.Infof("Started, feed poll every %s", timers.Feed)

	// prime the feed view immediately rather than waiting a full interval
	available := engine.Available(ctx)
	log.Infof("Feed: %d entries available", len(available))

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down")
			return

		case <-feedTicker.C:
			available := engine.Available(ctx)

			tracked := 0
			inFlight := 0
			for _, item := range available {
				if item.Tracked {
					tracked++
				}
				if item.InFlight {
					inFlight++
				}
			}

			log.Infof("Feed: %d entries, %d tracked, %d in flight",
				len(available), tracked, inFlight)

		case <-scheduleTicker.C:
			engine.RefreshSchedule(ctx)
			log.Debug("Refreshed schedule")

		case <-trackedTicker.C:
			items := engine.Tracked(ctx)
			log.Debugf("Tracked: %d series", len(items))

		case <-downloadsTicker.C:
			items := engine.Downloads(ctx)

			downloading := 0
			for _, item := range items {
				if item.Downloading {
					downloading++
				}
			}

			log.Debugf("Downloads: %d files, %d in progress", len(items), downloading)

		case <-healthTicker.C:
			if engine.Client().Connected() {
				continue
			}

			if engine.Client().Connect(ctx) {
				log.Info("Reconnected to download client")
			} else {
				log.Debug("Download client still unreachable")
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
