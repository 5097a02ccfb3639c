package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/reconcile"
)

var trackCmd = &cobra.Command{
	Use:   "track [TITLE]",
	Short: "Track an episode from the feed",
	Long: `Toggles tracking for a feed entry. Tracking an untracked entry submits
its download to the client, selecting an already-tracked one untracks it.`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("track")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		title := strings.Join(args, " ")

		action, err := engine.OnSelect(cmd.Context(), title)
		if err != nil {
			log.WithError(err).Fatalf("Failed toggling: %q", title)
		}

		switch action {
		case reconcile.ActionTracked:
			log.Infof("Now tracking: %s", title)
		case reconcile.ActionUntracked:
			log.Infof("No longer tracking: %s", title)
		}
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack [SERIES]",
	Short: "Stop tracking a series",
	Long:  `Removes every tracked entry matching the series name. Files on disk are kept.`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("untrack")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		series := strings.Join(args, " ")

		if err := engine.Untrack(series); err != nil {
			log.WithError(err).Fatalf("Failed untracking: %q", series)
		}

		log.Infof("No longer tracking: %s", series)
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(untrackCmd)
}
