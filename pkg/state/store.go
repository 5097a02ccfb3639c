package state

import (
	"fmt"
	"sync"

	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/logger"
)

// Store holds the durable user state: the settings document and the tracked
// series list. All mutations are serialized through a single mutex, load and
// save both operate on whole files so concurrent writers would lose updates
// otherwise.
type Store struct {
	dir string
	log *logrus.Entry

	mu       sync.Mutex
	settings Settings
	tracked  []string
	// canonical series name -> raw tracked titles deriving to it
	index map[string]*strset.Set
}

func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:   dir,
		log:   logger.GetLogger("state"),
		index: map[string]*strset.Set{},
	}

	if err := s.loadSettings(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := s.loadTracked(); err != nil {
		return nil, fmt.Errorf("load tracked: %w", err)
	}

	return s, nil
}
