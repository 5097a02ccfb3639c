package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

var trackedCmd = &cobra.Command{
	Use:   "tracked",
	Short: "List tracked series",
	Long: `Lists every tracked series together with series found in the download
folder, the last downloaded episode, whether the series has ended and
the countdown to the next broadcast.`,

	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("tracked")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		ctx := cmd.Context()
		engine.RefreshSchedule(ctx)

		items := engine.Tracked(ctx)
		if len(items) == 0 {
			log.Info("Nothing tracked yet")
			return
		}

		for _, item := range items {
			status := ""
			switch {
			case item.Ended:
				status = "ended"
			case item.Countdown != nil:
				status = fmt.Sprintf("next in %dd %dh %dm",
					item.Countdown.Days, item.Countdown.Hours, item.Countdown.Minutes)
			}

			line := item.Series
			if item.LastEpisode != "" {
				line = fmt.Sprintf("%s (last: %s)", line, item.LastEpisode)
			}
			if status != "" {
				line = fmt.Sprintf("%s - %s", line, status)
			}

			fmt.Println(line)
		}

		fmt.Printf("\n%d series\n", len(items))
	},
}

func init() {
	rootCmd.AddCommand(trackedCmd)
}
