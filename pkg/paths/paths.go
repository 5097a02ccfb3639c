package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

type File struct {
	Path         string
	Name         string
	Size         int64
	ModifiedTime time.Time
}

var log = logger.GetLogger("paths")

// DownloadedFiles lists the files directly inside folder. An absent folder is
// first-run state and yields an empty listing, never an error.
func DownloadedFiles(folder string) []File {
	if _, err := os.Stat(folder); err != nil {
		return nil
	}

	var mu sync.Mutex
	var files []File

	conf := fastwalk.Config{
		Follow: false,
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).Warnf("Error accessing path %q during walk", path)
			return nil
		}

		if path == folder {
			return nil
		}

		if d.IsDir() {
			// only the top level of the download folder is considered
			return filepath.SkipDir
		}

		info, err := d.Info()
		if err != nil {
			log.WithError(err).Warnf("Failed getting file info: %s", path)
			return nil
		}

		mu.Lock()
		files = append(files, File{
			Path:         path,
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		})
		mu.Unlock()

		return nil
	}

	if err := fastwalk.Walk(&conf, folder, walkFn); err != nil {
		log.WithError(err).Warnf("Failed walking folder: %s", folder)
	}

	return files
}

// SortNewestFirst orders files by modification time descending, used for
// latest-episode lookups.
func SortNewestFirst(files []File) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModifiedTime.After(files[j].ModifiedTime)
	})
}

// SortByName orders files lexicographically by filename, used for
// presentation.
func SortByName(files []File) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
}
