package kvstore

// Index is the in-memory view of the log: an insertion-ordered sequence of
// entries, rebuilt from replay at startup and extended on every write. The
// sequence is append-only for the lifetime of a session; earlier entries
// for a key are shadowed by later ones, never removed.
type Index struct {
	entries []Entry
}

// Record appends entry to the sequence. No deduplication, no rewriting of
// prior entries.
func (idx *Index) Record(entry Entry) {
	idx.entries = append(idx.entries, entry)
}

// Lookup scans the sequence newest-first and returns the most recent value
// written for key. The boolean is false when key was never written. This is
// a deliberate linear scan over the full write history; no map is kept.
func (idx *Index) Lookup(key string) (string, bool) {
	for i := len(idx.entries) - 1; i >= 0; i-- {
		if idx.entries[i].Key == key {
			return idx.entries[i].Value, true
		}
	}
	return "", false
}

// RebuildFrom resets the index to exactly the given sequence, preserving
// relative order. Used once at startup with the replay result.
func (idx *Index) RebuildFrom(entries []Entry) {
	idx.entries = make([]Entry, len(entries))
	copy(idx.entries, entries)
}

// Len returns the number of recorded entries, shadowed ones included.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns a copy of the write history in write order.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// DistinctKeys counts keys with at least one entry in the sequence.
func (idx *Index) DistinctKeys() int {
	seen := make(map[string]struct{}, len(idx.entries))
	for _, e := range idx.entries {
		seen[e.Key] = struct{}{}
	}
	return len(seen)
}
