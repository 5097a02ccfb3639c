package client

import (
	"context"
	"fmt"
	"path"
	"sync"

	delugeclient "github.com/autobrr/go-deluge"
	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/config"
	"github.com/tsugiapp/tsugi/pkg/logger"
)

/* Struct */

type Deluge struct {
	Host     string `koanf:"host"`
	Port     uint   `koanf:"port"`
	Login    string `koanf:"login"`
	Password string `koanf:"password"`
	V2       bool   `koanf:"v2"`

	log        *logrus.Entry
	clientType string
	client     *delugeclient.LabelPlugin
	client1    *delugeclient.Client
	client2    *delugeclient.ClientV2

	mu        sync.Mutex
	connected bool
}

/* Initializer */

// NewDeluge builds the alternate download client from the koanf clients
// section, mirroring how the primary client takes its settings from the
// state store.
func NewDeluge(name string) (Interface, error) {
	tc := Deluge{
		log:        logger.GetLogger("deluge"),
		clientType: "Deluge",
	}

	// load config
	if err := config.K.Unmarshal(fmt.Sprintf("clients%s%s", config.Delimiter, name), &tc); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if tc.Host == "" {
		return nil, fmt.Errorf("deluge client %q: host not configured", name)
	}

	// init client
	settings := delugeclient.Settings{
		Hostname: tc.Host,
		Port:     tc.Port,
		Login:    tc.Login,
		Password: tc.Password,
	}

	if tc.V2 {
		tc.client2 = delugeclient.NewV2(settings)
	} else {
		tc.client1 = delugeclient.NewV1(settings)
	}

	return &tc, nil
}

/* Interface */

func (c *Deluge) Type() string {
	return c.clientType
}

func (c *Deluge) Connect(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.V2 {
		err = c.client2.Connect(ctx)
	} else {
		err = c.client1.Connect(ctx)
	}

	if err != nil {
		c.log.WithError(err).Warn("Failed connecting to Deluge")
		c.connected = false
		return false
	}

	// labels stand in for categories on deluge
	var lc *delugeclient.LabelPlugin
	if c.V2 {
		lc, err = c.client2.LabelPlugin(ctx)
	} else {
		lc, err = c.client1.LabelPlugin(ctx)
	}

	if err != nil {
		c.log.WithError(err).Warn("Failed retrieving label plugin")
		c.connected = false
		return false
	}

	c.client = lc
	c.connected = true
	return true
}

func (c *Deluge) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Deluge) AddDownload(ctx context.Context, link string, category string) bool {
	if !c.Connected() {
		return false
	}

	hash, err := c.client.AddTorrentURL(ctx, link, nil)
	if err != nil {
		c.log.WithError(err).Errorf("Failed adding download: %s", link)
		return false
	}

	if category != "" {
		if err := c.client.SetTorrentLabel(ctx, hash, category); err != nil {
			c.log.WithError(err).Warnf("Failed labeling download: %s", hash)
		}
	}

	return true
}

func (c *Deluge) ListAll(ctx context.Context) []Torrent {
	if !c.Connected() {
		return nil
	}

	t, err := c.client.TorrentsStatus(ctx, delugeclient.StateUnspecified, nil)
	if err != nil {
		c.log.WithError(err).Warn("Failed retrieving torrents")
		return nil
	}

	torrents := make([]Torrent, 0, len(t))
	for h, t := range t {
		torrents = append(torrents, Torrent{
			ContentPath: path.Join(t.DownloadLocation, t.Name),
			Progress:    float64(t.Progress) / 100,
			Hash:        h,
		})
	}

	return torrents
}

func (c *Deluge) RemoveByHash(ctx context.Context, hash string, deleteFiles bool) bool {
	if !c.Connected() {
		return false
	}

	ok, err := c.client.RemoveTorrent(ctx, hash, deleteFiles)
	if err != nil || !ok {
		c.log.WithError(err).Errorf("Failed removing torrent: %s", hash)
		return false
	}

	return true
}
