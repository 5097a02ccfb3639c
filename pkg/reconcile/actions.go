package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsugiapp/tsugi/pkg/titles"
)

// SelectAction reports what OnSelect did.
type SelectAction int

const (
	ActionTracked SelectAction = iota + 1
	ActionUntracked
)

// OnSelect toggles tracking for a feed-entry title. An already-tracked series
// is untracked without touching files. An untracked one has its download link
// resolved from a fresh feed fetch and submitted to the download client,
// connecting on demand, and is tracked only once submission succeeds.
// Failures are returned to the caller, never retried here.
func (e *Engine) OnSelect(ctx context.Context, rawTitle string) (SelectAction, error) {
	canonical := titles.CanonicalSeriesName(rawTitle)

	if e.store.IsTracked(canonical) {
		if err := e.store.Untrack(canonical); err != nil {
			return 0, fmt.Errorf("untrack %q: %w", canonical, err)
		}

		e.log.Infof("Untracked: %s", canonical)
		return ActionUntracked, nil
	}

	link, ok := e.feed.Resolve(ctx, rawTitle)
	if !ok {
		return 0, fmt.Errorf("entry %q no longer in feed", rawTitle)
	}

	if !e.client.Connected() && !e.client.Connect(ctx) {
		return 0, fmt.Errorf("download client unreachable")
	}

	if !e.client.AddDownload(ctx, link, e.category) {
		return 0, fmt.Errorf("download submission rejected: %s", link)
	}

	if err := e.store.Track(rawTitle); err != nil {
		return 0, fmt.Errorf("track %q: %w", rawTitle, err)
	}

	e.log.Infof("Tracking: %s", canonical)
	e.notify("Episode grabbed", rawTitle)
	return ActionTracked, nil
}

// Untrack removes every tracked entry matching the canonical name. Files on
// disk are left alone.
func (e *Engine) Untrack(series string) error {
	canonical := titles.CanonicalSeriesName(series)

	if err := e.store.Untrack(canonical); err != nil {
		return fmt.Errorf("untrack %q: %w", canonical, err)
	}

	e.log.Infof("Untracked: %s", canonical)
	return nil
}

// Delete removes a downloaded file and, when a matching in-flight torrent
// exists, removes it from the download client together with its data.
// Partial failure is tolerated: a file already gone while the torrent was
// removed is still success.
func (e *Engine) Delete(ctx context.Context, filename string) error {
	path := filepath.Join(e.store.Settings().DownloadFolder, filename)

	var fileErr error
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fileErr = fmt.Errorf("remove file: %w", err)
	}

	// only consult the client when a session exists, a dangling file with no
	// torrent needs no client call
	if e.client.Connected() {
		if t := findTorrent(e.client.ListAll(ctx), filename); t != nil {
			if !e.client.RemoveByHash(ctx, t.Hash, true) {
				return fmt.Errorf("remove torrent %s: client rejected", t.Hash)
			}
			e.log.Infof("Removed in-flight torrent: %s", t.Hash)
		}
	}

	if fileErr != nil {
		return fileErr
	}

	e.log.Infof("Deleted: %s", filename)
	e.notify("Episode deleted", filename)
	return nil
}
