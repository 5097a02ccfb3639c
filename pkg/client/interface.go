package client

import "context"

// Torrent is the projection of a download client's live torrent state the
// reconciler consumes. It is never cached or persisted.
type Torrent struct {
	ContentPath string
	Progress    float64
	Hash        string
}

// Interface is the boundary to the external download client. Operations that
// need a session degrade gracefully when none exists, callers are expected to
// probe and reconnect.
type Interface interface {
	Type() string
	Connect(ctx context.Context) bool
	Connected() bool
	AddDownload(ctx context.Context, link string, category string) bool
	ListAll(ctx context.Context) []Torrent
	RemoveByHash(ctx context.Context, hash string, deleteFiles bool) bool
}
