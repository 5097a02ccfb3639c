package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/config"
	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/metadata"
	"github.com/tsugiapp/tsugi/pkg/schedule"
	"github.com/tsugiapp/tsugi/pkg/state"
	"github.com/tsugiapp/tsugi/pkg/titles"
)

var infoCmd = &cobra.Command{
	Use:   "info [SERIES]",
	Short: "Show details for a series",
	Long: `Shows the synopsis, airing status, poster cache path and next-broadcast
countdown for a series.`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("info")

		cfg := config.Config

		store, err := state.NewStore(cfg.StateDir)
		if err != nil {
			log.WithError(err).Fatal("Failed initializing state store")
		}

		metaClient := metadata.NewClient(cfg.Metadata.URL, cfg.Metadata.CallsPerSecond)
		cache, err := metadata.NewCache(metaClient,
			filepath.Join(cfg.StateDir, cfg.Metadata.CacheDir),
			cfg.Metadata.PlaceholderImage, cfg.Metadata.Workers)
		if err != nil {
			log.WithError(err).Fatal("Failed initializing metadata cache")
		}

		ctx := cmd.Context()
		series := titles.CanonicalSeriesName(strings.Join(args, " "))

		status := "ongoing"
		if cache.Ended(ctx, series) {
			status = "ended"
		}

		fmt.Printf("Series:  %s\n", series)
		fmt.Printf("Tracked: %t\n", store.IsTracked(series))
		fmt.Printf("Status:  %s\n", status)
		fmt.Printf("Poster:  %s\n", cache.PosterPath(ctx, series))

		sched := schedule.NewClient(cfg.Schedule.URL, cfg.Schedule.Timezone).Fetch(ctx)
		if cd, ok := schedule.NextEpisode(sched, series, time.Now()); ok {
			fmt.Printf("Next:    %dd %dh %dm\n", cd.Days, cd.Hours, cd.Minutes)
		}

		fmt.Printf("\n%s\n", cache.Description(ctx, series))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
