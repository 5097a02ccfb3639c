package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/config"
	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/state"
)

var (
	flagDownloadFolder string
	flagRSSURL         string
	flagQBHost         string
	flagQBUsername     string
	flagQBPassword     string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Shows the persisted settings. Any flag given updates that setting, the
whole document is rewritten on save.`,

	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("settings")

		store, err := state.NewStore(config.Config.StateDir)
		if err != nil {
			log.WithError(err).Fatal("Failed initializing state store")
		}

		settings := store.Settings()
		changed := false

		if cmd.Flags().Changed("download-folder") {
			settings.DownloadFolder = flagDownloadFolder
			changed = true
		}
		if cmd.Flags().Changed("rss-url") {
			settings.RSSURL = flagRSSURL
			changed = true
		}
		if cmd.Flags().Changed("qb-host") {
			settings.QBHost = flagQBHost
			changed = true
		}
		if cmd.Flags().Changed("qb-username") {
			settings.QBUsername = flagQBUsername
			changed = true
		}
		if cmd.Flags().Changed("qb-password") {
			settings.QBPassword = flagQBPassword
			changed = true
		}

		if changed {
			if err := store.SaveSettings(settings); err != nil {
				log.WithError(err).Fatal("Failed saving settings")
			}

			log.Info("Settings saved")
		}

		fmt.Printf("download_folder: %s\n", settings.DownloadFolder)
		fmt.Printf("rss_url:         %s\n", settings.RSSURL)
		fmt.Printf("qb_host:         %s\n", settings.QBHost)
		fmt.Printf("qb_username:     %s\n", settings.QBUsername)
		fmt.Printf("qb_password:     %s\n", "********")
	},
}

func init() {
	settingsCmd.Flags().StringVar(&flagDownloadFolder, "download-folder", "", "Download folder")
	settingsCmd.Flags().StringVar(&flagRSSURL, "rss-url", "", "Release feed URL")
	settingsCmd.Flags().StringVar(&flagQBHost, "qb-host", "", "qBittorrent WebUI host")
	settingsCmd.Flags().StringVar(&flagQBUsername, "qb-username", "", "qBittorrent username")
	settingsCmd.Flags().StringVar(&flagQBPassword, "qb-password", "", "qBittorrent password")

	rootCmd.AddCommand(settingsCmd)
}
