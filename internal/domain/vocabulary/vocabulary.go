// Package vocabulary defines the reference vocabulary domain model: the
// canonical substance entries that free-text mentions are matched against,
// and the ports through which the list is fetched and persisted.
package vocabulary

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Entry is one canonical vocabulary item: a stable identifier and the
// canonical substance text.
type Entry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Vocabulary is an ordered, de-duplicated collection of entries.  Order is
// the insertion order of first occurrences; identity is the case-normalised
// entry text, so "Tamoxifen" and "TAMOXIFEN" are the same entry and the
// first one wins.  A Vocabulary is immutable after construction and safe for
// concurrent readers.
type Vocabulary struct {
	entries []Entry
	index   map[string]int // normalised text → position in entries
	version string
}

// New builds a Vocabulary from entries, dropping blank texts and duplicate
// (case-normalised) texts while preserving first-occurrence order.
func New(entries []Entry) *Vocabulary {
	v := &Vocabulary{
		index: make(map[string]int, len(entries)),
	}
	h := fnv.New64a()
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if _, seen := v.index[key]; seen {
			continue
		}
		v.index[key] = len(v.entries)
		v.entries = append(v.entries, Entry{ID: strings.TrimSpace(e.ID), Text: text})
		h.Write([]byte(e.ID))
		h.Write([]byte{0})
		h.Write([]byte(text))
		h.Write([]byte{0})
	}
	v.version = fmt.Sprintf("%x", h.Sum64())
	return v
}

// Entries returns the entries in stable order.  Callers must not mutate the
// returned slice.
func (v *Vocabulary) Entries() []Entry {
	return v.entries
}

// Len returns the number of distinct entries.
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// IsEmpty reports whether the vocabulary holds no entries.
func (v *Vocabulary) IsEmpty() bool {
	return v == nil || len(v.entries) == 0
}

// Version is a content fingerprint of the vocabulary, used to key caches so
// that a refreshed list invalidates previously cached match results.
func (v *Vocabulary) Version() string {
	if v == nil {
		return ""
	}
	return v.version
}

// Contains reports whether the case-normalised text is present.
func (v *Vocabulary) Contains(text string) bool {
	if v == nil {
		return false
	}
	_, ok := v.index[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Provider fetches the current reference vocabulary from its source.
type Provider interface {
	Fetch(ctx context.Context) (*Vocabulary, error)
}

// Repository persists vocabulary snapshots.
type Repository interface {
	// ReplaceAll atomically replaces the stored snapshot with entries.
	ReplaceAll(ctx context.Context, entries []Entry) error

	// ListAll returns the stored entries in insertion order.
	ListAll(ctx context.Context) ([]Entry, error)
}
