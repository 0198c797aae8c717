package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// filterCapacity sizes each collection's bloom filter. Collections here are
	// small (users, tokens, orders for a single shop), so a generous estimate
	// keeps the false positive rate negligible.
	filterCapacity = 1_000_000
	filterFPR      = 0.001
)

var _ Store = (*FileStore)(nil)

// FileStore persists each record as one JSON file under
// <dir>/<collection>/<key>.json.
//
// A per-collection bloom filter acts as a negative cache: a key that was never
// added to the filter was never created, so reads and deletes of missing keys
// return ErrNotFound without touching the disk. False positives only cost a
// stat; deleted keys stay in the filter until restart.
type FileStore struct {
	dir string

	mu      sync.Mutex
	filters map[string]*bloom.BloomFilter
}

// NewFileStore creates the root directory if needed and warms the bloom
// filters by scanning existing collection directories concurrently.
func NewFileStore(ctx context.Context, dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}

	s := &FileStore{
		dir:     dir,
		filters: make(map[string]*bloom.BloomFilter),
	}
	if err := s.warmFilters(ctx); err != nil {
		return nil, errors.Wrap(err, "warm filters")
	}
	return s, nil
}

// warmFilters scans every collection directory and adds the existing keys to
// that collection's filter, one goroutine per collection.
func (s *FileStore) warmFilters(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrap(err, "read store dir")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		collection := e.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := os.ReadDir(filepath.Join(s.dir, collection))
			if err != nil {
				return errors.Wrapf(err, "read collection %s", collection)
			}
			filter := bloom.NewWithEstimates(filterCapacity, filterFPR)
			for _, f := range files {
				key, ok := strings.CutSuffix(f.Name(), ".json")
				if !ok {
					continue
				}
				filter.AddString(key)
			}
			s.mu.Lock()
			s.filters[collection] = filter
			s.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// mayExist reports whether the key could exist in the collection. A false
// result is authoritative.
func (s *FileStore) mayExist(collection, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	filter, ok := s.filters[collection]
	if !ok {
		return false
	}
	return filter.TestString(key)
}

func (s *FileStore) addKey(collection, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filter, ok := s.filters[collection]
	if !ok {
		filter = bloom.NewWithEstimates(filterCapacity, filterFPR)
		s.filters[collection] = filter
	}
	filter.AddString(key)
}

// path returns the file path for a record, rejecting keys that would escape
// the collection directory.
func (s *FileStore) path(collection, key string) (string, error) {
	if collection == "" || key == "" {
		return "", errors.New("empty collection or key")
	}
	if strings.ContainsAny(collection+key, `/\`) || key == "." || key == ".." {
		return "", errors.Errorf("invalid record key %q", key)
	}
	return filepath.Join(s.dir, collection, key+".json"), nil
}

func (s *FileStore) Create(ctx context.Context, collection, key string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create collection dir")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	// O_EXCL is the uniqueness guarantee: the create fails atomically when the
	// key already has a file.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrAlreadyExists, "%s/%s", collection, key)
		}
		return errors.Wrap(err, "create record file")
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write record")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close record file")
	}

	s.addKey(collection, key)
	return nil
}

func (s *FileStore) Read(ctx context.Context, collection, key string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if !s.mayExist(collection, key) {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
		}
		return errors.Wrap(err, "read record file")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "unmarshal record %s/%s", collection, key)
	}
	return nil
}

func (s *FileStore) Update(ctx context.Context, collection, key string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if !s.mayExist(collection, key) {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
		}
		return errors.Wrap(err, "stat record file")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	// Write-then-rename keeps the record readable at every point in time.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+key+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "write record")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "replace record file")
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if !s.mayExist(collection, key) {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
		}
		return errors.Wrap(err, "remove record file")
	}
	return nil
}

// Ping verifies the store directory is still accessible. Used by readiness
// checks.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(s.dir)
	return err
}
