package allocation

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cohdi/cdimock/pkg/fixture"
	"github.com/cohdi/cdimock/pkg/logging"
)

// filePattern selects the allocatable entries of an incoming directory.
const filePattern = "*.json"

// PoolExhaustedError is returned when an incoming directory holds no more
// allocatable entries.
type PoolExhaustedError struct {
	Dir string
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("No resources in '%s' left to allocate.", e.Dir)
}

// ErrorCode is the machine-readable error code reported to clients.
func (e *PoolExhaustedError) ErrorCode() string {
	return "no_available_resources"
}

// IsPoolExhausted reports whether err is a *PoolExhaustedError.
func IsPoolExhausted(err error) bool {
	var pe *PoolExhaustedError
	return errors.As(err, &pe)
}

// Result is an allocated resource.
type Result struct {
	// Name is the file name of the allocated entry.
	Name string
	// Body is the entry's contents, re-serialised.
	Body []byte
	// Status is the HTTP status to answer with.
	Status int
}

// Store hands out entries of directory-backed pools.
type Store struct {
	mu    sync.Mutex
	pools map[string]*sync.Mutex
	log   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used to record allocations.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates an allocation store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		pools: make(map[string]*sync.Mutex),
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockFor returns the mutex guarding the pool at dir.
func (s *Store) lockFor(dir string) *sync.Mutex {
	key := filepath.Clean(dir)

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.pools[key]
	if !ok {
		l = &sync.Mutex{}
		s.pools[key] = l
	}
	return l
}

// AllocateNext moves one entry from incomingDir to allocatedDir and returns its
// contents. allocatedDir must already exist. When the pool is empty it returns
// a *PoolExhaustedError. If the entry cannot be parsed or moved an error is
// returned and the entry stays in the pool.
func (s *Store) AllocateNext(incomingDir, allocatedDir string) (*Result, error) {
	l := s.lockFor(incomingDir)
	l.Lock()
	defer l.Unlock()

	names, err := list(incomingDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &PoolExhaustedError{Dir: incomingDir}
	}

	name := names[0]
	src := filepath.Join(incomingDir, name)
	dst := filepath.Join(allocatedDir, name)

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	_, body, err := fixture.Canonicalize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("move %s to %s: %w", src, allocatedDir, err)
	}

	s.log.Info("allocated resource", "pool", incomingDir, "file", name, "remaining", len(names)-1)
	return &Result{Name: name, Body: body, Status: http.StatusOK}, nil
}

// Pending returns the number of entries left in the pool at incomingDir.
func (s *Store) Pending(incomingDir string) (int, error) {
	l := s.lockFor(incomingDir)
	l.Lock()
	defer l.Unlock()

	names, err := list(incomingDir)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// list returns the allocatable entry names of dir in lexical order.
func list(dir string) ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(dir), filePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return names, nil
}
