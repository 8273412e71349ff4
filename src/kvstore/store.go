package kvstore

import (
	"errors"
	"fmt"
	"os"
	"sync"

	logs "github.com/danmuck/smplog"
)

var ErrStoreClosed = errors.New("store is closed")

// Store ties the log and the index into the read/write contract: every
// successful Set is durable on disk before the index reflects it, and every
// Get is answered from memory alone.
//
// The mutex serializes operations within this process. This remains a
// single-writer store: nothing guards the log file against other processes.
type Store struct {
	config StoreConfig
	log    *LogStore
	index  Index
	mu     sync.Mutex
}

// StoreStats describes the current shape of the store.
type StoreStats struct {
	Records  int   // entries in the index, shadowed history included
	Keys     int   // distinct keys
	Shadowed int   // entries superseded by a later write
	LogBytes int64 // size of the log file on disk
}

// Open constructs a store over the log at path with default configuration.
func Open(path string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the log file (creating it if absent), replays it in
// full, and rebuilds the in-memory index. Replay happens here and nowhere
// else; the store serves no request until it completes.
func OpenWithConfig(cfg StoreConfig) (*Store, error) {
	if cfg.LogPath == "" {
		return nil, fmt.Errorf("store config has no log path")
	}

	ls, err := OpenLogStore(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	entries, stats, err := ls.Replay()
	if err != nil {
		ls.Close()
		return nil, err
	}

	s := &Store{
		config: cfg,
		log:    ls,
	}
	s.index.RebuildFrom(entries)

	if cfg.Verbose {
		logs.Infof("replayed %s: %d record(s), %d malformed line(s) skipped",
			cfg.LogPath, stats.Records, stats.Skipped)
	}
	return s, nil
}

// Set validates the pair, durably appends it to the log, then records it in
// the index — in that order, so a crash between the two leaves the log as
// ground truth for the next replay.
func (s *Store) Set(key, value string) error {
	if err := ValidateEntry(key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.log == nil {
		return ErrStoreClosed
	}
	if err := s.log.Append(key, value); err != nil {
		return err
	}
	s.index.Record(Entry{Key: key, Value: value})

	if s.config.Verbose {
		logs.Debugf("set %q (%d entries)", key, s.index.Len())
	}
	return nil
}

// Get answers from the index alone; the log is never read after startup.
// The boolean is false when key has never been set — absence is a normal
// outcome, not an error.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Lookup(key)
}

// History returns the full in-memory write sequence, oldest first.
func (s *Store) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Entries()
}

// Stats reports index and on-disk log sizes.
func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := StoreStats{
		Records: s.index.Len(),
		Keys:    s.index.DistinctKeys(),
	}
	st.Shadowed = st.Records - st.Keys
	if info, err := os.Stat(s.config.LogPath); err == nil {
		st.LogBytes = info.Size()
	}
	return st
}

// LogPath returns the path of the underlying log file.
func (s *Store) LogPath() string {
	return s.config.LogPath
}

// Close releases the log handle. Reads keep working against the in-memory
// index; writes are rejected with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.log == nil {
		return nil
	}
	err := s.log.Close()
	s.log = nil
	return err
}
