package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

type FiltersConfiguration struct {
	// entries matching any ignore expression are dropped from the available view
	Ignore []string
}

type MetadataConfiguration struct {
	URL              string  `yaml:"url" koanf:"url"`
	CallsPerSecond   int     `yaml:"calls_per_second" koanf:"calls_per_second"`
	CacheDir         string  `yaml:"cache_dir" koanf:"cache_dir"`
	PlaceholderImage string  `yaml:"placeholder_image" koanf:"placeholder_image"`
	Workers          int     `yaml:"workers" koanf:"workers"`
}

type ScheduleConfiguration struct {
	URL      string `yaml:"url" koanf:"url"`
	Timezone string `yaml:"timezone" koanf:"timezone"`
}

type TimersConfiguration struct {
	Feed        time.Duration `yaml:"feed" koanf:"feed"`
	Schedule    time.Duration `yaml:"schedule" koanf:"schedule"`
	Tracked     time.Duration `yaml:"tracked" koanf:"tracked"`
	Downloads   time.Duration `yaml:"downloads" koanf:"downloads"`
	HealthCheck time.Duration `yaml:"health_check" koanf:"health_check"`
}

type ClientConfiguration struct {
	// qbittorrent (default) or deluge
	Type string `yaml:"type" koanf:"type"`
}

type NotificationsConfig struct {
	Service NotificationService
}

type NotificationService struct {
	Discord DiscordConfig `yaml:"discord" koanf:"discord"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url" koanf:"webhook_url"`
	Username   string `yaml:"username" koanf:"username"`
	AvatarURL  string `yaml:"avatar_url" koanf:"avatar_url"`
}

type Configuration struct {
	StateDir        string `yaml:"state_dir" koanf:"state_dir"`
	Category        string
	VideoExtensions []string `yaml:"video_extensions" koanf:"video_extensions"`
	Filters         FiltersConfiguration
	Metadata        MetadataConfiguration
	Schedule        ScheduleConfiguration
	Timers          TimersConfiguration
	Client          ClientConfiguration
	Clients         map[string]map[string]interface{}
	Notifications   NotificationsConfig
}

/* Vars */

var (
	cfgPath = ""

	Delimiter = "."
	Config    *Configuration
	K         = koanf.New(Delimiter)

	// Internal
	log = logger.GetLogger("cfg")
)

/* Public */

func Init(configFilePath string) error {
	// set package variables
	cfgPath = configFilePath

	// defaults
	if err := K.Load(confmap.Provider(map[string]interface{}{
		"state_dir":                 ".",
		"category":                  "Anime",
		"video_extensions":          []string{".mkv", ".mp4", ".avi"},
		"metadata.url":              "https://api.jikan.moe/v4/anime",
		"metadata.calls_per_second": 1,
		"metadata.cache_dir":        "image_cache",
		"metadata.placeholder_image": "placeholder.jpg",
		"metadata.workers":          4,
		"schedule.url":              "https://subsplease.org/api/",
		"schedule.timezone":         "UTC",
		"timers.feed":               5 * time.Minute,
		"timers.schedule":           30 * time.Minute,
		"timers.tracked":            10 * time.Minute,
		"timers.downloads":          5 * time.Second,
		"timers.health_check":       time.Minute,
		"client.type":               "qbittorrent",
	}, Delimiter), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	// load config file when present, first run without one is fine
	if err := K.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
		log.WithError(err).Debugf("No config file loaded from: %s", configFilePath)
	}

	// load environment variables
	if err := K.Load(env.Provider("TSUGI__", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "TSUGI__")), "_", ".", -1)
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// unmarshal config
	if err := K.Unmarshal("", &Config); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	return nil
}

func ShowUsing() {
	log.Infof("Using CONFIG = %q", cfgPath)
}
