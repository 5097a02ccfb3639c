package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "List episodes in the release feed",
	Long:  `Lists the current release feed entries with tracked and in-flight markers.`,

	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("available")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		ctx := cmd.Context()
		engine.Client().Connect(ctx)

		items := engine.Available(ctx)
		if len(items) == 0 {
			log.Warn("Feed returned no entries")
			return
		}

		for _, item := range items {
			marker := " "
			switch {
			case item.Tracked:
				marker = "*"
			case item.InFlight:
				marker = ">"
			}

			fmt.Printf("%s %s\n", marker, item.Entry.Title)
		}

		fmt.Printf("\n%d entries (* tracked, > downloading)\n", len(items))
	},
}

func init() {
	rootCmd.AddCommand(availableCmd)
}
