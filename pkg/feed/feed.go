package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/bobesa/go-domain-util/domainutil"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/logger"
	"github.com/tsugiapp/tsugi/pkg/titles"
)

// Entry is a single feed item, ephemeral and re-fetched on every poll.
type Entry struct {
	Title string
	Link  string
}

// Series returns the canonical series name for the entry.
func (e Entry) Series() string {
	return titles.CanonicalSeriesName(e.Title)
}

// Episode returns the episode label for the entry.
func (e Entry) Episode() string {
	return titles.EpisodeLabel(e.Title)
}

// SourceDomain returns the registrable domain the entry links to, or "" when
// the link cannot be parsed.
func (e Entry) SourceDomain() string {
	return domainutil.Domain(e.Link)
}

type Client struct {
	url    string
	parser *gofeed.Parser
	log    *logrus.Entry
}

func NewClient(url string, timeout time.Duration) *Client {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &Client{
		url:    url,
		parser: parser,
		log:    logger.GetLogger("feed"),
	}
}

// Fetch retrieves the current feed entries. Any fetch or parse failure
// degrades to no entries, it is never surfaced to the caller.
func (c *Client) Fetch(ctx context.Context) []Entry {
	f, err := c.parser.ParseURLWithContext(c.url, ctx)
	if err != nil {
		c.log.WithError(err).Warnf("Failed fetching feed: %s", c.url)
		return nil
	}

	entries := make([]Entry, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		entries = append(entries, Entry{Title: item.Title, Link: item.Link})
	}

	c.log.Tracef("Fetched %d feed entries", len(entries))
	return entries
}

// Resolve returns the download link for the given raw title from a fresh
// fetch of the feed.
func (c *Client) Resolve(ctx context.Context, title string) (string, bool) {
	for _, entry := range c.Fetch(ctx) {
		if entry.Title == title {
			return entry.Link, true
		}
	}
	return "", false
}
