package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/client"
	"github.com/tsugiapp/tsugi/pkg/expression"
	"github.com/tsugiapp/tsugi/pkg/feed"
	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/paths"
	"github.com/tsugiapp/tsugi/pkg/schedule"
	"github.com/tsugiapp/tsugi/pkg/state"
)

// overridable in tests
var nowFunc = time.Now

// Store is the durable user state the engine reconciles against.
type Store interface {
	Settings() state.Settings
	Tracked() []string
	IsTracked(canonical string) bool
	Track(raw string) error
	Untrack(canonical string) error
}

// FeedSource supplies current feed entries.
type FeedSource interface {
	Fetch(ctx context.Context) []feed.Entry
	Resolve(ctx context.Context, title string) (string, bool)
}

// MetadataSource supplies cached artwork and series status.
type MetadataSource interface {
	CachedPosterPath(canonical string) (string, bool)
	PlaceholderPath() string
	Ended(ctx context.Context, raw string) bool
	Warm(ctx context.Context, canonicals []string)
}

// ScheduleSource supplies the weekly broadcast schedule.
type ScheduleSource interface {
	Fetch(ctx context.Context) schedule.Schedule
}

// Notifier receives tracked/grabbed events, a nil or non-sending notifier is
// skipped.
type Notifier interface {
	CanSend() bool
	Send(event string, details string) error
}

// Engine computes the three user-facing views by joining feed data, tracked
// state, the download folder listing and the download client's live torrent
// state. Every view is independently recomputable, the only cross-call state
// is the metadata cache and the last fetched schedule.
type Engine struct {
	store    Store
	feed     FeedSource
	meta     MetadataSource
	schedSrc ScheduleSource
	client   client.Interface
	notifier Notifier
	filters  *expression.Expressions

	category  string
	videoExts []string
	listFiles func(folder string) []paths.File

	log *logrus.Entry

	mu    sync.Mutex
	sched schedule.Schedule
}

type Options struct {
	Store    Store
	Feed     FeedSource
	Metadata MetadataSource
	Schedule ScheduleSource
	Client   client.Interface
	Notifier Notifier
	Filters  *expression.Expressions

	Category        string
	VideoExtensions []string

	// overridable for tests, defaults to paths.DownloadedFiles
	ListFiles func(folder string) []paths.File
}

func NewEngine(opts Options) *Engine {
	listFiles := opts.ListFiles
	if listFiles == nil {
		listFiles = paths.DownloadedFiles
	}

	videoExts := opts.VideoExtensions
	if len(videoExts) == 0 {
		videoExts = []string{".mkv"}
	}

	return &Engine{
		store:     opts.Store,
		feed:      opts.Feed,
		meta:      opts.Metadata,
		schedSrc:  opts.Schedule,
		client:    opts.Client,
		notifier:  opts.Notifier,
		filters:   opts.Filters,
		category:  opts.Category,
		videoExts: videoExts,
		listFiles: listFiles,
		log:       logger.GetLogger("reconcile"),
	}
}

// Client exposes the download client for session management.
func (e *Engine) Client() client.Interface {
	return e.client
}

// RefreshSchedule pulls the weekly schedule, keeping the previous one when
// the fetch degrades to nil.
func (e *Engine) RefreshSchedule(ctx context.Context) {
	sched := e.schedSrc.Fetch(ctx)
	if sched == nil {
		return
	}

	e.mu.Lock()
	e.sched = sched
	e.mu.Unlock()
}

func (e *Engine) currentSchedule() schedule.Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched
}

// poster resolves the cached poster for a canonical name, falling back to
// the placeholder without blocking the view on a fetch.
func (e *Engine) poster(canonical string) string {
	if path, ok := e.meta.CachedPosterPath(canonical); ok {
		return path
	}
	return e.meta.PlaceholderPath()
}

// warmPosters kicks off background fetches for uncached posters, bounded by
// the metadata worker pool. A superseding view of the same title resolves
// via the cache rather than waiting on this.
func (e *Engine) warmPosters(ctx context.Context, canonicals []string) {
	go e.meta.Warm(ctx, canonicals)
}

func (e *Engine) notify(event string, details string) {
	if e.notifier == nil || !e.notifier.CanSend() {
		return
	}

	if err := e.notifier.Send(event, details); err != nil {
		e.log.WithError(err).Warnf("Failed sending notification: %s", event)
	}
}
