package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List downloaded episodes",
	Long:  `Lists downloaded video files with size and live download progress.`,

	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("downloads")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		ctx := cmd.Context()
		engine.Client().Connect(ctx)

		items := engine.Downloads(ctx)
		if len(items) == 0 {
			log.Info("Download folder is empty")
			return
		}

		var total int64
		for _, item := range items {
			progress := ""
			if item.Downloading {
				progress = fmt.Sprintf(" [%.0f%%]", item.Progress*100)
			}

			fmt.Printf("%-10s %s%s\n", humanize.IBytes(uint64(item.Size)), item.Filename, progress)
			total += item.Size
		}

		fmt.Printf("\n%d files, %s\n", len(items), humanize.IBytes(uint64(total)))
	},
}

func init() {
	rootCmd.AddCommand(downloadsCmd)
}
