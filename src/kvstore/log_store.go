package kvstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const recordCommand = "SET"

// maxRecordBytes bounds a single serialized record, newline included.
// ValidateEntry rejects writes that would exceed it, and replay skips any
// longer line as garbage, so the store never writes what it cannot replay.
const maxRecordBytes = 1 << 20

// LogStore owns the append-only log file. The file handle is acquired when
// the store is constructed and held until Close; records are durable once
// Append returns. The file is never rewritten or truncated, only extended.
type LogStore struct {
	path string
	file *os.File
}

// ReplayStats summarizes one full scan of the log.
type ReplayStats struct {
	Lines   int // physical lines read
	Records int // well-formed records recovered
	Skipped int // malformed lines dropped
}

// OpenLogStore opens the log at path for appending, creating it if absent.
func OpenLogStore(path string) (*LogStore, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return &LogStore{path: path, file: f}, nil
}

func (ls *LogStore) Path() string {
	return ls.path
}

// Append writes exactly one `SET <key> <value>` line and forces it through
// to stable storage before returning. Records are never reordered or
// coalesced. On error the caller must assume the record is not durable.
func (ls *LogStore) Append(key, value string) error {
	if ls.file == nil {
		return fmt.Errorf("%w: %s", ErrStoreClosed, ls.path)
	}
	record := fmt.Sprintf("%s %s %s\n", recordCommand, key, value)
	if _, err := ls.file.WriteString(record); err != nil {
		return fmt.Errorf("failed to append record to %s: %w", ls.path, err)
	}
	if err := ls.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file %s: %w", ls.path, err)
	}
	return nil
}

// Replay rebuilds the full record sequence from disk. The composed store
// calls this once, at construction, before serving any request.
func (ls *LogStore) Replay() ([]Entry, ReplayStats, error) {
	return ReplayLog(ls.path)
}

// Close releases the log file handle. Further appends are rejected.
func (ls *LogStore) Close() error {
	if ls.file == nil {
		return nil
	}
	err := ls.file.Close()
	ls.file = nil
	if err != nil {
		return fmt.Errorf("failed to close log file %s: %w", ls.path, err)
	}
	return nil
}

// ReplayLog scans the log at path and returns every well-formed record in
// write order. A missing file is an empty log, not an error. Malformed or
// truncated lines (e.g. a torn final write from a crashed process) are
// skipped and counted, never fatal; bytes that are not valid UTF-8 are
// replaced with U+FFFD rather than aborting recovery.
func ReplayLog(path string) ([]Entry, ReplayStats, error) {
	var stats ReplayStats

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stats, nil
		}
		return nil, stats, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	reader := bufio.NewReader(f)
	for {
		line, overlong, readErr := readLogLine(reader)
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, stats, fmt.Errorf("failed to read log file %s: %w", path, readErr)
		}
		stats.Lines++
		if overlong {
			stats.Skipped++
			continue
		}
		line = strings.ToValidUTF8(line, string(utf8.RuneError))
		entry, ok := parseRecord(line)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Records++
		entries = append(entries, entry)
	}

	return entries, stats, nil
}

// readLogLine returns the next line without its terminator. A line longer
// than maxRecordBytes is fully drained and reported as overlong so replay
// can skip it and resume at the next line instead of aborting recovery.
func readLogLine(r *bufio.Reader) (line string, overlong bool, err error) {
	var buf []byte
	for {
		frag, isPrefix, readErr := r.ReadLine()
		if readErr != nil {
			return "", overlong, readErr
		}
		if !overlong {
			if len(buf)+len(frag) > maxRecordBytes {
				overlong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return string(buf), overlong, nil
		}
	}
}

// parseRecord decodes one log line: exactly three whitespace-separated
// tokens with a case-sensitive SET command. Anything else is malformed.
func parseRecord(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != recordCommand {
		return Entry{}, false
	}
	return Entry{Key: fields[1], Value: fields[2]}, true
}
