package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsugiapp/tsugi/pkg/client"
	"github.com/tsugiapp/tsugi/pkg/expression"
	"github.com/tsugiapp/tsugi/pkg/feed"
	"github.com/tsugiapp/tsugi/pkg/schedule"
	"github.com/tsugiapp/tsugi/pkg/state"
)

// fakes

type fakeFeed struct {
	entries []feed.Entry
}

func (f *fakeFeed) Fetch(context.Context) []feed.Entry {
	return f.entries
}

func (f *fakeFeed) Resolve(ctx context.Context, title string) (string, bool) {
	for _, e := range f.entries {
		if e.Title == title {
			return e.Link, true
		}
	}
	return "", false
}

type fakeMeta struct {
	cached      map[string]string
	ended       map[string]bool
	placeholder string

	// Warm runs on a background goroutine
	mu     sync.Mutex
	warmed [][]string
}

func (m *fakeMeta) CachedPosterPath(canonical string) (string, bool) {
	p, ok := m.cached[canonical]
	return p, ok
}

func (m *fakeMeta) PlaceholderPath() string {
	return m.placeholder
}

func (m *fakeMeta) Ended(_ context.Context, raw string) bool {
	return m.ended[raw]
}

func (m *fakeMeta) Warm(_ context.Context, canonicals []string) {
	m.mu.Lock()
	m.warmed = append(m.warmed, canonicals)
	m.mu.Unlock()
}

type fakeSchedule struct {
	sched schedule.Schedule
}

func (s *fakeSchedule) Fetch(context.Context) schedule.Schedule {
	return s.sched
}

type fakeClient struct {
	connected    bool
	connectOK    bool
	connectCalls int
	addOK        bool
	added        []string
	torrents     []client.Torrent
	listCalls    int
	removed      []string
	removeOK     bool
	removedFiles bool
}

func (c *fakeClient) Type() string { return "fake" }

func (c *fakeClient) Connect(context.Context) bool {
	c.connectCalls++
	c.connected = c.connectOK
	return c.connectOK
}

func (c *fakeClient) Connected() bool { return c.connected }

func (c *fakeClient) AddDownload(_ context.Context, link string, _ string) bool {
	if !c.connected || !c.addOK {
		return false
	}
	c.added = append(c.added, link)
	return true
}

func (c *fakeClient) ListAll(context.Context) []client.Torrent {
	c.listCalls++
	if !c.connected {
		return nil
	}
	return c.torrents
}

func (c *fakeClient) RemoveByHash(_ context.Context, hash string, deleteFiles bool) bool {
	if !c.connected || !c.removeOK {
		return false
	}
	c.removed = append(c.removed, hash)
	c.removedFiles = deleteFiles
	return true
}

// helpers

type engineFixture struct {
	engine *Engine
	store  *state.Store
	feed   *fakeFeed
	meta   *fakeMeta
	client *fakeClient
	dir    string
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()

	stateDir := t.TempDir()
	downloadDir := t.TempDir()

	store, err := state.NewStore(stateDir)
	require.NoError(t, err)

	settings := store.Settings()
	settings.DownloadFolder = downloadDir
	require.NoError(t, store.SaveSettings(settings))

	ff := &fakeFeed{}
	fm := &fakeMeta{
		cached:      map[string]string{},
		ended:       map[string]bool{},
		placeholder: "placeholder.jpg",
	}
	fc := &fakeClient{connected: true, connectOK: true, addOK: true, removeOK: true}

	engine := NewEngine(Options{
		Store:           store,
		Feed:            ff,
		Metadata:        fm,
		Schedule:        &fakeSchedule{},
		Client:          fc,
		Category:        "Anime",
		VideoExtensions: []string{".mkv"},
	})

	return &engineFixture{
		engine: engine,
		store:  store,
		feed:   ff,
		meta:   fm,
		client: fc,
		dir:    downloadDir,
	}
}

func (f *engineFixture) addFile(t *testing.T, name string, age time.Duration) {
	t.Helper()

	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// tests

func TestAvailableMarksTrackedAndInFlight(t *testing.T) {
	f := newFixture(t)
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:dandadan"},
		{Title: "[SubsPlease] One Piece - 1089 [1080p]", Link: "magnet:onepiece"},
	}
	require.NoError(t, f.store.Track("[SubsPlease] Dandadan - 05 [1080p]"))

	f.client.torrents = []client.Torrent{
		{ContentPath: "/dl/[SubsPlease] One Piece - 1089 [1080p].mkv", Progress: 0.4, Hash: "abc"},
	}

	items := f.engine.Available(context.Background())
	require.Len(t, items, 2)

	assert.True(t, items[0].Tracked)
	assert.False(t, items[0].InFlight)
	assert.False(t, items[1].Tracked)
	assert.True(t, items[1].InFlight)
}

func TestAvailableUsesPlaceholderUntilCached(t *testing.T) {
	f := newFixture(t)
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:x"},
	}
	f.meta.cached["Dandadan"] = "/cache/Dandadan.jpg"

	items := f.engine.Available(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "/cache/Dandadan.jpg", items[0].PosterPath)

	f.meta.cached = map[string]string{}
	items = f.engine.Available(context.Background())
	assert.Equal(t, "placeholder.jpg", items[0].PosterPath)
}

func TestAvailableDropsFilteredEntries(t *testing.T) {
	f := newFixture(t)

	exp, err := expression.Compile([]string{`Title contains "720p"`})
	require.NoError(t, err)
	f.engine.filters = exp

	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [720p]", Link: "magnet:a"},
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:b"},
	}

	items := f.engine.Available(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "magnet:b", items[0].Entry.Link)
}

func TestOnSelectTracksAndSubmits(t *testing.T) {
	f := newFixture(t)
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:dandadan"},
	}

	action, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Dandadan - 05 [1080p]")
	require.NoError(t, err)
	assert.Equal(t, ActionTracked, action)
	assert.Equal(t, []string{"magnet:dandadan"}, f.client.added)
	assert.True(t, f.store.IsTracked("Dandadan"))
}

func TestOnSelectTogglesToUntrack(t *testing.T) {
	f := newFixture(t)
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:dandadan"},
	}

	before := f.store.Tracked()

	_, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Dandadan - 05 [1080p]")
	require.NoError(t, err)

	action, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Dandadan - 05 [1080p]")
	require.NoError(t, err)
	assert.Equal(t, ActionUntracked, action)

	// round trip restores the original contents
	assert.ElementsMatch(t, before, f.store.Tracked())
}

func TestOnSelectConnectsOnDemand(t *testing.T) {
	f := newFixture(t)
	f.client.connected = false
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:dandadan"},
	}

	_, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Dandadan - 05 [1080p]")
	require.NoError(t, err)
	assert.Equal(t, 1, f.client.connectCalls)
}

func TestOnSelectFailsWhenClientUnreachable(t *testing.T) {
	f := newFixture(t)
	f.client.connected = false
	f.client.connectOK = false
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:dandadan"},
	}

	_, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Dandadan - 05 [1080p]")
	assert.Error(t, err)
	assert.False(t, f.store.IsTracked("Dandadan"))
}

func TestOnSelectFailsWhenSubmissionRejected(t *testing.T) {
	f := newFixture(t)
	f.client.addOK = false
	f.feed.entries = []feed.Entry{
		{Title: "[SubsPlease] Dandadan - 05 [1080p]", Link: "magnet:dandadan"},
	}

	_, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Dandadan - 05 [1080p]")
	assert.Error(t, err)
	// submission failure must not track
	assert.False(t, f.store.IsTracked("Dandadan"))
}

func TestOnSelectFailsWhenEntryGone(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.OnSelect(context.Background(), "[SubsPlease] Vanished - 01 [1080p]")
	assert.Error(t, err)
}

func TestTrackedUnionWithDownloadedFiles(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Track("[SubsPlease] Dandadan - 05 [1080p]"))
	f.addFile(t, "[SubsPlease] Frieren - 01 [1080p].mkv", time.Hour)

	items := f.engine.Tracked(context.Background())
	require.Len(t, items, 2)

	// deduplicated by canonical name, sorted lexicographically
	assert.Equal(t, "Dandadan", items[0].Series)
	assert.Equal(t, "Frieren", items[1].Series)
}

func TestTrackedLastEpisodeSkipsOtherSeries(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Track("[SubsPlease] Frieren - 01 [1080p]"))
	f.addFile(t, "[SubsPlease] Frieren - 01 [1080p].mkv", 3*time.Hour)
	f.addFile(t, "[SubsPlease] Frieren - 02 [1080p].mkv", 2*time.Hour)
	f.addFile(t, "[SubsPlease] Dandadan - 09 [1080p].mkv", time.Hour)

	items := f.engine.Tracked(context.Background())
	require.Len(t, items, 2)

	var frieren *TrackedItem
	for i := range items {
		if items[i].Series == "Frieren" {
			frieren = &items[i]
		}
	}
	require.NotNil(t, frieren)

	// newest-first scan, last match wins
	assert.Equal(t, "01", frieren.LastEpisode)
}

func TestTrackedCountdown(t *testing.T) {
	f := newFixture(t)

	nowFunc = func() time.Time {
		// Monday 09:00 UTC
		return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	defer func() { nowFunc = time.Now }()

	f.engine.schedSrc = &fakeSchedule{sched: schedule.Schedule{
		"monday": {{Time: "10:00", Title: "Dandadan"}},
	}}
	f.engine.RefreshSchedule(context.Background())

	require.NoError(t, f.store.Track("[SubsPlease] Dandadan - 05 [1080p]"))

	items := f.engine.Tracked(context.Background())
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Countdown)
	assert.Equal(t, 1, items[0].Countdown.Hours)
}

func TestDownloadsFiltersAndSorts(t *testing.T) {
	f := newFixture(t)

	f.addFile(t, "b-show - 02 [1080p].mkv", time.Hour)
	f.addFile(t, "a-show - 01 [1080p].mkv", 2*time.Hour)
	f.addFile(t, "notes.txt", time.Minute)

	items := f.engine.Downloads(context.Background())
	require.Len(t, items, 2)

	// lexicographic by filename, non-video files excluded
	assert.Equal(t, "a-show - 01 [1080p].mkv", items[0].Filename)
	assert.Equal(t, "b-show - 02 [1080p].mkv", items[1].Filename)
	assert.Equal(t, int64(4), items[0].Size)
}

func TestDownloadsProgressMatching(t *testing.T) {
	f := newFixture(t)

	f.addFile(t, "[SubsPlease] Dandadan - 05 [1080p].mkv", time.Hour)
	f.client.torrents = []client.Torrent{
		{ContentPath: f.dir + "/[SubsPlease] Dandadan - 05 [1080p].mkv", Progress: 0.75, Hash: "h1"},
	}

	items := f.engine.Downloads(context.Background())
	require.Len(t, items, 1)
	assert.True(t, items[0].Downloading)
	assert.InDelta(t, 0.75, items[0].Progress, 0.001)
}

func TestDownloadsNoMatchMeansNotDownloading(t *testing.T) {
	f := newFixture(t)

	f.addFile(t, "[SubsPlease] Dandadan - 05 [1080p].mkv", time.Hour)

	items := f.engine.Downloads(context.Background())
	require.Len(t, items, 1)
	assert.False(t, items[0].Downloading)
	assert.Zero(t, items[0].Progress)
}

func TestDeleteFileWithoutTorrent(t *testing.T) {
	f := newFixture(t)

	f.addFile(t, "[SubsPlease] Dandadan - 05 [1080p].mkv", time.Hour)

	require.NoError(t, f.engine.Delete(context.Background(), "[SubsPlease] Dandadan - 05 [1080p].mkv"))

	_, err := os.Stat(filepath.Join(f.dir, "[SubsPlease] Dandadan - 05 [1080p].mkv"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, f.client.removed)
}

func TestDeleteRemovesMatchingTorrentWithData(t *testing.T) {
	f := newFixture(t)

	f.addFile(t, "[SubsPlease] Dandadan - 05 [1080p].mkv", time.Hour)
	f.client.torrents = []client.Torrent{
		{ContentPath: f.dir + "/[SubsPlease] Dandadan - 05 [1080p].mkv", Progress: 0.5, Hash: "h1"},
	}

	require.NoError(t, f.engine.Delete(context.Background(), "[SubsPlease] Dandadan - 05 [1080p].mkv"))
	assert.Equal(t, []string{"h1"}, f.client.removed)
	assert.True(t, f.client.removedFiles)
}

func TestDeleteMissingFileWithTorrentStillSucceeds(t *testing.T) {
	f := newFixture(t)

	f.client.torrents = []client.Torrent{
		{ContentPath: f.dir + "/[SubsPlease] Gone - 01 [1080p].mkv", Progress: 0.5, Hash: "h2"},
	}

	// file never existed locally, torrent removal alone is success
	require.NoError(t, f.engine.Delete(context.Background(), "[SubsPlease] Gone - 01 [1080p].mkv"))
	assert.Equal(t, []string{"h2"}, f.client.removed)
}

func TestUntrackLeavesFiles(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Track("[SubsPlease] Frieren - 01 [1080p]"))
	f.addFile(t, "[SubsPlease] Frieren - 01 [1080p].mkv", time.Hour)

	require.NoError(t, f.engine.Untrack("Frieren"))
	assert.False(t, f.store.IsTracked("Frieren"))

	_, err := os.Stat(filepath.Join(f.dir, "[SubsPlease] Frieren - 01 [1080p].mkv"))
	assert.NoError(t, err)

	// still visible in the tracked view via its files
	items := f.engine.Tracked(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "Frieren", items[0].Series)
}
