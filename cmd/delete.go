package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [FILENAME]",
	Short: "Delete a downloaded episode",
	Long: `Deletes a file from the download folder. A matching in-flight torrent is
removed from the download client together with its data.`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("delete")

		engine, _, err := buildEngine()
		if err != nil {
			log.WithError(err).Fatal("Failed initializing")
		}

		ctx := cmd.Context()
		engine.Client().Connect(ctx)

		filename := args[0]

		if err := engine.Delete(ctx, filename); err != nil {
			log.WithError(err).Fatalf("Failed deleting: %q", filename)
		}

		log.Infof("Deleted: %s", filename)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
