package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/tsugiapp/tsugi/pkg/httputils"
	"github.com/tsugiapp/tsugi/pkg/logger"
)

type searchResult struct {
	Title  string `json:"title"`
	Images struct {
		JPG struct {
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Synopsis string `json:"synopsis"`
	Status   string `json:"status"`
}

type searchResponse struct {
	Data []searchResult `json:"data"`
}

// Client queries the metadata search API. Every search request is paced by a
// shared limiter so the upstream rate limit is honoured across all callers.
type Client struct {
	baseURL  string
	http     *http.Client
	download *http.Client
	log      *logrus.Entry
}

func NewClient(baseURL string, callsPerSecond int) *Client {
	if callsPerSecond <= 0 {
		callsPerSecond = 1
	}

	return &Client{
		baseURL: baseURL,
		http: httputils.NewRetryableHttpClient(15*time.Second,
			ratelimit.New(callsPerSecond, ratelimit.WithoutSlack)),
		// image bytes come from a CDN, only the search API is rate limited
		download: httputils.NewRetryableHttpClient(30*time.Second, nil),
		log:      logger.GetLogger("metadata"),
	}
}

func (c *Client) search(ctx context.Context, title string) (*searchResult, error) {
	requestURL, err := httputils.URLWithQuery(c.baseURL, url.Values{
		"q":     []string{title},
		"limit": []string{strconv.Itoa(1)},
	})
	if err != nil {
		return nil, fmt.Errorf("creating request URL: %w", err)
	}

	var resp searchResponse
	if err := httputils.MakeAPIRequest(ctx, c.http, http.MethodGet, requestURL, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("making api request: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no results for %q", title)
	}

	return &resp.Data[0], nil
}

func (c *Client) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	res, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image body: %w", err)
	}

	return data, nil
}
