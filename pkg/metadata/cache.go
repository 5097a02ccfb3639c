package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/titles"
)

const (
	maxAttempts        = 3
	defaultDescription = "No description available."
)

// overridable in tests
var retryBackoff = time.Second

// Cache is the content-addressed metadata cache. Poster images live on disk
// keyed by the sanitized canonical title and are permanently valid once
// present. Description and ended-status lookups are memoized in process for
// the cache's lifetime, there is no eviction.
type Cache struct {
	client      *Client
	dir         string
	placeholder string
	workers     int
	log         *logrus.Entry

	group singleflight.Group

	mu           sync.Mutex
	descriptions map[string]string
	ended        map[string]bool
}

func NewCache(client *Client, dir string, placeholder string, workers int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	if workers <= 0 {
		workers = 1
	}

	return &Cache{
		client:       client,
		dir:          dir,
		placeholder:  placeholder,
		workers:      workers,
		log:          logger.GetLogger("metacache"),
		descriptions: map[string]string{},
		ended:        map[string]bool{},
	}, nil
}

// PosterPath returns the on-disk image path for the canonical title. A
// present cache file is a permanent hit and short-circuits before any network
// call. Otherwise the search API is queried for up to three attempts with a
// one second pause between them, and exhaustion falls back to the placeholder
// path. No error ever reaches the caller.
func (c *Cache) PosterPath(ctx context.Context, canonical string) string {
	cachePath := c.cachePath(canonical)
	if _, err := os.Stat(cachePath); err == nil {
		c.log.Tracef("Using cached image for %q", canonical)
		return cachePath
	}

	// concurrent requests for one title collapse into a single fetch
	path, _, _ := c.group.Do(canonical, func() (interface{}, error) {
		return c.fetchPoster(ctx, canonical, cachePath), nil
	})

	return path.(string)
}

func (c *Cache) fetchPoster(ctx context.Context, canonical string, cachePath string) string {
	// another caller may have populated the cache while we queued
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.tryFetchPoster(ctx, canonical, cachePath)
		if err == nil {
			c.log.Debugf("Cached image for %q", canonical)
			return cachePath
		}

		c.log.WithError(err).Warnf("Failed fetching image for %q (attempt %d/%d)",
			canonical, attempt, maxAttempts)

		if attempt < maxAttempts {
			time.Sleep(retryBackoff)
		}
	}

	return c.placeholder
}

func (c *Cache) tryFetchPoster(ctx context.Context, canonical string, cachePath string) error {
	result, err := c.client.search(ctx, canonical)
	if err != nil {
		return err
	}

	imageURL := result.Images.JPG.LargeImageURL
	if imageURL == "" {
		return fmt.Errorf("no image url for %q", canonical)
	}

	data, err := c.client.downloadImage(ctx, imageURL)
	if err != nil {
		return err
	}

	if err := atomicWrite(cachePath, data); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// CachedPosterPath reports a disk cache hit without triggering any fetch,
// used by view rendering which must never block on the network.
func (c *Cache) CachedPosterPath(canonical string) (string, bool) {
	cachePath := c.cachePath(canonical)
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, true
	}
	return "", false
}

// PlaceholderPath returns the fixed fallback asset.
func (c *Cache) PlaceholderPath() string {
	return c.placeholder
}

// Description returns the synopsis for the raw title, fetched at most once
// per canonical title per process run. Any failure memoizes the generic
// default, this lookup is best effort and never retried.
func (c *Cache) Description(ctx context.Context, raw string) string {
	canonical := titles.CanonicalSeriesName(raw)

	c.mu.Lock()
	if desc, ok := c.descriptions[canonical]; ok {
		c.mu.Unlock()
		return desc
	}
	c.mu.Unlock()

	desc := defaultDescription
	if result, err := c.client.search(ctx, canonical); err != nil {
		c.log.WithError(err).Debugf("Failed fetching description for %q", canonical)
	} else if result.Synopsis != "" {
		desc = result.Synopsis
	}

	c.mu.Lock()
	c.descriptions[canonical] = desc
	c.mu.Unlock()

	return desc
}

// Ended reports whether the series has finished airing, defaulting to
// ongoing on any failure. The result is memoized for the process lifetime.
func (c *Cache) Ended(ctx context.Context, raw string) bool {
	canonical := titles.CanonicalSeriesName(raw)

	c.mu.Lock()
	if ended, ok := c.ended[canonical]; ok {
		c.mu.Unlock()
		return ended
	}
	c.mu.Unlock()

	ended := false
	if result, err := c.client.search(ctx, canonical); err != nil {
		c.log.WithError(err).Debugf("Failed fetching status for %q", canonical)
	} else {
		status := strings.ToLower(result.Status)
		ended = strings.Contains(status, "finished") || strings.Contains(status, "completed")
	}

	c.mu.Lock()
	c.ended[canonical] = ended
	c.mu.Unlock()

	return ended
}

// Warm fetches posters for the given canonical titles through a bounded
// worker pool, so a slow or rate-limited fetch never blocks the caller's
// render loop.
func (c *Cache) Warm(ctx context.Context, canonicals []string) {
	g := new(errgroup.Group)
	g.SetLimit(c.workers)

	seen := map[string]struct{}{}
	for _, canonical := range canonicals {
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}

		g.Go(func() error {
			c.PosterPath(ctx, canonical)
			return nil
		})
	}

	_ = g.Wait()
}

func (c *Cache) cachePath(canonical string) string {
	return filepath.Join(c.dir, titles.SanitizeKey(canonical)+".jpg")
}

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
