package kvstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

// newTestLogStore opens a LogStore on a fresh temp path.
func newTestLogStore(t *testing.T) (*LogStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	ls, err := OpenLogStore(path)
	if err != nil {
		t.Fatalf("failed to open log store: %v", err)
	}
	t.Cleanup(func() { ls.Close() })
	return ls, path
}

func TestAppendAndReplayRoundTrip(t *testing.T) {
	ls, _ := newTestLogStore(t)

	writes := []Entry{
		{Key: "alpha", Value: "1"},
		{Key: "beta", Value: "2"},
		{Key: "alpha", Value: "3"},
	}
	for _, w := range writes {
		if err := ls.Append(w.Key, w.Value); err != nil {
			t.Fatalf("failed to append %v: %v", w, err)
		}
	}

	entries, stats, err := ls.Replay()
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if stats.Skipped != 0 {
		t.Errorf("expected no skipped lines, got %d", stats.Skipped)
	}
	if len(entries) != len(writes) {
		t.Fatalf("expected %d entries, got %d", len(writes), len(entries))
	}
	for i, w := range writes {
		if entries[i] != w {
			t.Errorf("entry %d: got %v, want %v", i, entries[i], w)
		}
	}
}

func TestAppendWritesExactlyOneLine(t *testing.T) {
	ls, path := newTestLogStore(t)

	if err := ls.Append("k", "v"); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(data) != "SET k v\n" {
		t.Errorf("unexpected log contents: %q", string(data))
	}
}

func TestReplayMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.db")

	entries, stats, err := ReplayLog(path)
	if err != nil {
		t.Fatalf("replay of missing file should not fail: %v", err)
	}
	if len(entries) != 0 || stats.Lines != 0 {
		t.Errorf("expected empty replay, got %d entries over %d lines", len(entries), stats.Lines)
	}
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantEntries []Entry
		wantSkipped int
	}{
		{
			name:        "lowercase command is not a record",
			raw:         "set a 1\nSET b 2\n",
			wantEntries: []Entry{{Key: "b", Value: "2"}},
			wantSkipped: 1,
		},
		{
			name:        "missing value token",
			raw:         "SET a\nSET b 2\n",
			wantEntries: []Entry{{Key: "b", Value: "2"}},
			wantSkipped: 1,
		},
		{
			name:        "extra token",
			raw:         "SET a 1 trailing\n",
			wantEntries: nil,
			wantSkipped: 1,
		},
		{
			name:        "wrong command keyword",
			raw:         "GET a\nSET b 2\n",
			wantEntries: []Entry{{Key: "b", Value: "2"}},
			wantSkipped: 1,
		},
		{
			name:        "blank lines",
			raw:         "\n\nSET a 1\n",
			wantEntries: []Entry{{Key: "a", Value: "1"}},
			wantSkipped: 2,
		},
		{
			name:        "garbage line between records",
			raw:         "SET a 1\n\x00\x01\x02\nSET a 2\n",
			wantEntries: []Entry{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}},
			wantSkipped: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.db")
			if err := os.WriteFile(path, []byte(tc.raw), 0644); err != nil {
				t.Fatalf("failed to seed log file: %v", err)
			}

			entries, stats, err := ReplayLog(path)
			if err != nil {
				t.Fatalf("replay failed: %v", err)
			}
			if stats.Skipped != tc.wantSkipped {
				t.Errorf("skipped = %d, want %d", stats.Skipped, tc.wantSkipped)
			}
			if len(entries) != len(tc.wantEntries) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tc.wantEntries))
			}
			for i, want := range tc.wantEntries {
				if entries[i] != want {
					t.Errorf("entry %d: got %v, want %v", i, entries[i], want)
				}
			}
		})
	}
}

func TestReplayToleratesCorruptedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	// two complete records followed by a torn final write: no trailing
	// newline and an incomplete token set.
	raw := "SET a 1\nSET b 2\nSET c"
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to seed log file: %v", err)
	}

	entries, stats, err := ReplayLog(path)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 recovered entries, got %d", len(entries))
	}
	if entries[0] != (Entry{Key: "a", Value: "1"}) || entries[1] != (Entry{Key: "b", Value: "2"}) {
		t.Errorf("unexpected entries: %v", entries)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected the torn tail to count as 1 skipped line, got %d", stats.Skipped)
	}
}

func TestReplaySkipsOverlongLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	// an oversized garbage line between two good records must be skipped
	// like any other corruption, not abort recovery
	raw := "SET a 1\n" + strings.Repeat("x", maxRecordBytes+10) + "\nSET a 2\n"
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to seed log file: %v", err)
	}

	entries, stats, err := ReplayLog(path)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if stats.Lines != 3 {
		t.Errorf("Lines = %d, want 3", stats.Lines)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 recovered entries, got %d", len(entries))
	}
	if entries[0] != (Entry{Key: "a", Value: "1"}) || entries[1] != (Entry{Key: "a", Value: "2"}) {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestReplayToleratesOverlongTailWithoutNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	raw := "SET a 1\nSET " + strings.Repeat("x", maxRecordBytes+10)
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to seed log file: %v", err)
	}

	entries, stats, err := ReplayLog(path)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(entries) != 1 || entries[0] != (Entry{Key: "a", Value: "1"}) {
		t.Fatalf("unexpected entries: %v", entries)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}

func TestLargestValidRecordRoundTrips(t *testing.T) {
	ls, _ := newTestLogStore(t)

	// the biggest value ValidateEntry admits for a one-byte key
	value := strings.Repeat("v", maxRecordBytes-len(recordCommand)-1-3)
	if err := ValidateEntry("k", value); err != nil {
		t.Fatalf("maximal entry failed validation: %v", err)
	}
	if err := ls.Append("k", value); err != nil {
		t.Fatalf("failed to append maximal record: %v", err)
	}

	entries, stats, err := ls.Replay()
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if stats.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", stats.Skipped)
	}
	if len(entries) != 1 || entries[0].Value != value {
		t.Fatal("maximal record did not survive replay")
	}
}

func TestReplayLossyDecodesInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	// a record whose value contains a byte sequence that is not valid
	// UTF-8; replay substitutes U+FFFD instead of failing.
	raw := []byte("SET bad \xffval\n")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("failed to seed log file: %v", err)
	}

	entries, stats, err := ReplayLog(path)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if stats.Skipped != 0 {
		t.Errorf("expected no skipped lines, got %d", stats.Skipped)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := string(utf8.RuneError) + "val"
	if entries[0].Key != "bad" || entries[0].Value != want {
		t.Errorf("got entry %v, want value %q", entries[0], want)
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	ls, _ := newTestLogStore(t)

	if err := ls.Close(); err != nil {
		t.Fatalf("failed to close log store: %v", err)
	}
	if err := ls.Append("k", "v"); err == nil {
		t.Fatal("expected append after close to fail")
	}
}
