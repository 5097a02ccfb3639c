package client

import (
	"context"
	"sync"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

/* Struct */

type QBittorrent struct {
	log        *logrus.Entry
	clientType string
	client     *qbit.Client

	// reconnects are a critical section, polls are read-only
	mu        sync.Mutex
	connected bool
}

/* Initializer */

func NewQBittorrent(host string, user string, password string) Interface {
	return &QBittorrent{
		log:        logger.GetLogger("qbit"),
		clientType: "qBittorrent",
		client: qbit.NewClient(qbit.Config{
			Host:          host,
			Username:      user,
			Password:      password,
			TLSSkipVerify: true,
			BasicUser:     user,
			BasicPass:     password,
			Log:           nil,
		}),
	}
}

/* Interface */

func (c *QBittorrent) Type() string {
	return c.clientType
}

func (c *QBittorrent) Connect(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.LoginCtx(ctx); err != nil {
		c.log.WithError(err).Warn("Failed connecting to qBittorrent")
		c.connected = false
		return false
	}

	if apiVersion, err := c.client.GetWebAPIVersion(); err == nil {
		c.log.Debugf("API Version: %v", apiVersion)
	}

	c.connected = true
	return true
}

func (c *QBittorrent) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *QBittorrent) AddDownload(ctx context.Context, link string, category string) bool {
	if !c.Connected() {
		return false
	}

	opts := map[string]string{}
	if category != "" {
		opts["category"] = category
	}

	if err := c.client.AddTorrentFromUrlCtx(ctx, link, opts); err != nil {
		c.log.WithError(err).Errorf("Failed adding download: %s", link)
		return false
	}

	return true
}

func (c *QBittorrent) ListAll(ctx context.Context) []Torrent {
	if !c.Connected() {
		return nil
	}

	t, err := c.client.GetTorrentsCtx(ctx, qbit.TorrentFilterOptions{})
	if err != nil {
		c.log.WithError(err).Warn("Failed retrieving torrents")
		return nil
	}

	torrents := make([]Torrent, 0, len(t))
	for _, t := range t {
		torrents = append(torrents, Torrent{
			ContentPath: t.ContentPath,
			Progress:    t.Progress,
			Hash:        t.Hash,
		})
	}

	return torrents
}

func (c *QBittorrent) RemoveByHash(ctx context.Context, hash string, deleteFiles bool) bool {
	if !c.Connected() {
		return false
	}

	if err := c.client.DeleteTorrentsCtx(ctx, []string{hash}, deleteFiles); err != nil {
		c.log.WithError(err).Errorf("Failed removing torrent: %s", hash)
		return false
	}

	return true
}
