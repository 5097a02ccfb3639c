package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/lucperkins/rek"
	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/httputils"
	"github.com/tsugiapp/tsugi/pkg/logger"
)

// Entry is a single broadcast slot from the remote schedule.
type Entry struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

// Schedule maps a weekday name, as the remote spells it, to its broadcast
// slots. It is ephemeral, re-fetched per poll.
type Schedule map[string][]Entry

type Client struct {
	url      string
	timezone string
	http     *http.Client
	log      *logrus.Entry
}

func NewClient(apiURL string, timezone string) *Client {
	return &Client{
		url:      apiURL,
		timezone: timezone,
		http:     httputils.NewRetryableHttpClient(15*time.Second, nil),
		log:      logger.GetLogger("schedule"),
	}
}

// Fetch retrieves the weekly schedule. Any failure degrades to a nil
// schedule ("schedule unavailable"), never an error.
func (c *Client) Fetch(ctx context.Context) Schedule {
	requestURL, err := httputils.URLWithQuery(c.url, url.Values{
		"f":  []string{"schedule"},
		"tz": []string{c.timezone},
	})
	if err != nil {
		c.log.WithError(err).Warn("Failed building schedule URL")
		return nil
	}

	resp, err := rek.Get(requestURL,
		rek.Client(c.http),
		rek.Context(ctx),
	)
	if err != nil {
		c.log.WithError(err).Warn("Failed fetching schedule")
		return nil
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		c.log.Warnf("Failed fetching schedule, response: %s", resp.Status())
		return nil
	}

	b := new(struct {
		Schedule Schedule `json:"schedule"`
	})
	if err := json.NewDecoder(resp.Body()).Decode(b); err != nil {
		c.log.WithError(err).Warn("Failed decoding schedule response")
		return nil
	}

	return b.Schedule
}
