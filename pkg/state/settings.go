package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings are the user-mutable settings, persisted as a single JSON
// document. Saving always rewrites the whole document, there is no partial
// merge.
type Settings struct {
	DownloadFolder string `json:"download_folder"`
	RSSURL         string `json:"rss_url"`
	QBHost         string `json:"qb_host"`
	QBUsername     string `json:"qb_username"`
	QBPassword     string `json:"qb_password"`
}

// DefaultSettings are used on first run when no settings file exists.
func DefaultSettings() Settings {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return Settings{
		DownloadFolder: cwd,
		RSSURL:         "https://subsplease.org/rss/?r=1080",
		QBHost:         "http://127.0.0.1:8080",
		QBUsername:     "admin",
		QBPassword:     "adminadmin",
	}
}

// Settings returns a copy of the in-memory settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SaveSettings overwrites the settings file and the in-memory copy, so reads
// within the same run are consistent without touching disk.
func (s *Store) SaveSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := atomicWrite(s.settingsPath(), data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	s.settings = settings
	return nil
}

func (s *Store) loadSettings() error {
	data, err := os.ReadFile(s.settingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			// first run
			s.settings = DefaultSettings()
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("unmarshal settings: %w", err)
	}

	s.settings = settings
	return nil
}

func (s *Store) settingsPath() string {
	return filepath.Join(s.dir, "settings.json")
}

// atomicWrite replaces path via a temp file and rename so a crash mid-write
// never leaves a truncated document behind.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
