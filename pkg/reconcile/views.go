package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/scylladb/go-set/strset"

	"github.com/tsugiapp/tsugi/pkg/client"
	"github.com/tsugiapp/tsugi/pkg/expression"
	"github.com/tsugiapp/tsugi/pkg/feed"
	"github.com/tsugiapp/tsugi/pkg/paths"
	"github.com/tsugiapp/tsugi/pkg/schedule"
	"github.com/tsugiapp/tsugi/pkg/titles"
)

type AvailableItem struct {
	Entry      feed.Entry
	PosterPath string
	Tracked    bool
	InFlight   bool
}

type TrackedItem struct {
	Series      string
	PosterPath  string
	LastEpisode string
	Ended       bool
	Countdown   *schedule.Countdown
}

type DownloadItem struct {
	Filename    string
	Size        int64
	PosterPath  string
	Progress    float64
	Downloading bool
}

// Available joins the current feed entries with tracked state and in-flight
// torrent status. Entries matching a configured ignore filter are dropped.
func (e *Engine) Available(ctx context.Context) []AvailableItem {
	entries := e.feed.Fetch(ctx)
	torrents := e.client.ListAll(ctx)

	items := make([]AvailableItem, 0, len(entries))
	var series []string

	for _, entry := range entries {
		if e.filters != nil {
			match, text, err := expression.CheckEntryMatch(entry, e.filters.Ignores)
			if err != nil {
				e.log.WithError(err).Warnf("Failed evaluating filter for: %s", entry.Title)
			} else if match {
				e.log.Tracef("Ignoring %q, matched filter: %s", entry.Title, text)
				continue
			}
		}

		canonical := entry.Series()
		series = append(series, canonical)

		items = append(items, AvailableItem{
			Entry:      entry,
			PosterPath: e.poster(canonical),
			Tracked:    e.store.IsTracked(canonical),
			InFlight:   findTorrent(torrents, entry.Title) != nil,
		})
	}

	e.warmPosters(ctx, series)
	return items
}

// Tracked returns the per-series view: the union of canonical names from the
// tracked list and from downloaded video filenames, so a series with files on
// disk stays visible after untracking.
func (e *Engine) Tracked(ctx context.Context) []TrackedItem {
	names := strset.New()

	for _, raw := range e.store.Tracked() {
		names.Add(titles.CanonicalSeriesName(raw))
	}

	files := e.videoFiles()
	for _, f := range files {
		names.Add(titles.CanonicalSeriesName(f.Name))
	}

	series := names.List()
	sort.Strings(series)
	e.warmPosters(ctx, series)

	sched := e.currentSchedule()

	items := make([]TrackedItem, 0, len(series))
	for _, name := range series {
		item := TrackedItem{
			Series:      name,
			PosterPath:  e.poster(name),
			LastEpisode: e.lastEpisode(name, files),
			Ended:       e.meta.Ended(ctx, name),
		}

		if cd, ok := schedule.NextEpisode(sched, name, nowFunc()); ok {
			item.Countdown = &cd
		}

		items = append(items, item)
	}

	return items
}

// Downloads lists downloaded video files with live progress from the
// download client, sorted by filename for presentation.
func (e *Engine) Downloads(ctx context.Context) []DownloadItem {
	files := e.videoFiles()
	paths.SortByName(files)

	torrents := e.client.ListAll(ctx)

	items := make([]DownloadItem, 0, len(files))
	var series []string

	for _, f := range files {
		canonical := titles.CanonicalSeriesName(f.Name)
		series = append(series, canonical)

		item := DownloadItem{
			Filename:   f.Name,
			Size:       f.Size,
			PosterPath: e.poster(canonical),
		}

		// no matching torrent simply means not currently downloading
		if t := findTorrent(torrents, f.Name); t != nil {
			item.Progress = t.Progress
			item.Downloading = true
		}

		items = append(items, item)
	}

	e.warmPosters(ctx, series)
	return items
}

// videoFiles lists the download folder filtered to recognized video
// containers, newest first for latest-episode lookups.
func (e *Engine) videoFiles() []paths.File {
	files := e.listFiles(e.store.Settings().DownloadFolder)

	kept := files[:0]
	for _, f := range files {
		if e.isVideo(f.Name) {
			kept = append(kept, f)
		}
	}

	paths.SortNewestFirst(kept)
	return kept
}

func (e *Engine) isVideo(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range e.videoExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// lastEpisode scans the newest-first file listing for the series,
// last match wins. A filename the normalizer cannot label is skipped.
func (e *Engine) lastEpisode(series string, files []paths.File) string {
	episode := ""

	for _, f := range files {
		if !strings.Contains(f.Name, series) {
			continue
		}

		if label := titles.EpisodeLabel(f.Name); label != "" {
			episode = label
		}
	}

	return episode
}

// findTorrent returns the first torrent whose content path contains the
// filename.
func findTorrent(torrents []client.Torrent, filename string) *client.Torrent {
	for i := range torrents {
		if strings.Contains(torrents[i].ContentPath, filename) {
			return &torrents[i]
		}
	}
	return nil
}
