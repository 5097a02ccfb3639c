package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsugiapp/tsugi/pkg/client"
	"github.com/tsugiapp/tsugi/pkg/config"
	"github.com/tsugiapp/tsugi/pkg/expression"
	"github.com/tsugiapp/tsugi/pkg/feed"
	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/metadata"
	"github.com/tsugiapp/tsugi/pkg/notification"
	"github.com/tsugiapp/tsugi/pkg/reconcile"
	"github.com/tsugiapp/tsugi/pkg/runtime"
	"github.com/tsugiapp/tsugi/pkg/schedule"
	"github.com/tsugiapp/tsugi/pkg/state"
)

var (
	flagConfigFile = "config.yaml"
	flagLogFile    = "activity.log"
	flagLogLevel   = 0

	initialized bool
)

var rootCmd = &cobra.Command{
	Use:   "tsugi",
	Short: "An anime release tracker",
	Long: `A CLI application that follows anime RSS releases, tracks chosen series,
hands new episodes to a download client and keeps artwork and air
schedules cached locally.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Parse persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "config.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log", "activity.log", "Log file")
	rootCmd.PersistentFlags().CountVarP(&flagLogLevel, "verbose", "v", "Verbose level")
}

func initCore(showAppInfo bool) {
	// Set core variables
	if !rootCmd.PersistentFlags().Changed("config") {
		flagConfigFile = filepath.Join(".", flagConfigFile)
	}
	if !rootCmd.PersistentFlags().Changed("log") {
		flagLogFile = filepath.Join(".", flagLogFile)
	}

	// Init Logging
	if err := logger.Init(flagLogLevel, flagLogFile); err != nil {
		fmt.Printf("Failed initializing logger: %v\n", err)
		os.Exit(1)
	}

	if showAppInfo {
		showUsing()
	}

	// Init Config
	if err := config.Init(flagConfigFile); err != nil {
		fmt.Printf("Failed initializing config: %v\n", err)
		os.Exit(1)
	}
}

func showUsing() {
	// show app info
	log := logger.GetLogger("app")
	log.Infof("Using %s = %s (%s@%s)", "VERSION", runtime.Version, runtime.GitCommit, runtime.Timestamp)
	logger.ShowUsing()
	config.ShowUsing()
}

// buildEngine assembles the state store, feed, metadata cache, schedule
// client, download client and notifier into a reconcile engine.
func buildEngine() (*reconcile.Engine, *state.Store, error) {
	cfg := config.Config

	store, err := state.NewStore(cfg.StateDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init state store: %w", err)
	}

	settings := store.Settings()

	metaClient := metadata.NewClient(cfg.Metadata.URL, cfg.Metadata.CallsPerSecond)
	metaCache, err := metadata.NewCache(metaClient,
		filepath.Join(cfg.StateDir, cfg.Metadata.CacheDir),
		cfg.Metadata.PlaceholderImage, cfg.Metadata.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("init metadata cache: %w", err)
	}

	filters, err := expression.Compile(cfg.Filters.Ignore)
	if err != nil {
		return nil, nil, fmt.Errorf("compile filters: %w", err)
	}

	dc, err := client.New(cfg.Client.Type, settings.QBHost, settings.QBUsername, settings.QBPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("init download client: %w", err)
	}

	var notifier notification.Sender = notification.NewNoopSender()
	if cfg.Notifications.Service.Discord.WebhookURL != "" {
		notifier = notification.NewDiscordSender(logger.GetLogger("notify"),
			cfg.Notifications.Service.Discord)
	}

	engine := reconcile.NewEngine(reconcile.Options{
		Store:           store,
		Feed:            feed.NewClient(settings.RSSURL, 30*time.Second),
		Metadata:        metaCache,
		Schedule:        schedule.NewClient(cfg.Schedule.URL, cfg.Schedule.Timezone),
		Client:          dc,
		Notifier:        notifier,
		Filters:         filters,
		Category:        cfg.Category,
		VideoExtensions: cfg.VideoExtensions,
	})

	return engine, store, nil
}
