// Package vectorindex defines the persistent vector index used by
// ingestion and retrieval: (id, vector, metadata, text) entries with
// metadata-filtered deletes and cosine nearest-neighbour queries.
package vectorindex

import (
	"context"
	"math"
	"sort"
)

// Metadata records where an index entry came from. It is a fixed record
// rather than an open map so filters and labels are checked at compile
// time.
type Metadata struct {
	ModuleID   int64
	MaterialID int64
	ChunkIndex int
	Tag        string
	Source     string
}

// Entry is one persisted unit inside the index. IDs are caller-supplied
// and globally unique; the text payload is carried so results can be
// rendered without a second lookup.
type Entry struct {
	ID       string
	Vector   []float64
	Metadata Metadata
	Text     string
}

// Filter selects entries by metadata. Zero-valued fields match everything;
// both ids are positive in practice.
type Filter struct {
	ModuleID   int64
	MaterialID int64
}

// Matches reports whether the metadata satisfies the filter.
func (f Filter) Matches(m Metadata) bool {
	if f.ModuleID != 0 && m.ModuleID != f.ModuleID {
		return false
	}
	if f.MaterialID != 0 && m.MaterialID != f.MaterialID {
		return false
	}
	return true
}

// Match pairs an entry with its cosine similarity to the query vector.
type Match struct {
	Entry Entry
	Score float64
}

// Index stores embedded chunks and answers similarity queries.
//
// A nil Index means the backend was not configured; callers decide that
// once at startup and degrade every operation to a no-op or empty result.
type Index interface {
	// Upsert inserts the entries. Ids must not collide across re-ingestions
	// racing with deletes.
	Upsert(ctx context.Context, entries []Entry) error

	// DeleteWhere removes every entry matching the filter. Deleting with a
	// filter that matches nothing is a no-op.
	DeleteWhere(ctx context.Context, f Filter) error

	// Query returns at most k entries matching the filter, ordered by
	// descending cosine similarity to vector. Entries with a zero-norm
	// vector are never returned.
	Query(ctx context.Context, vector []float64, k int, f Filter) ([]Match, error)
}

// Cosine returns the cosine similarity of a and b. ok is false when either
// vector has zero norm; such pairs must be excluded from ranking instead
// of being scored.
func Cosine(a, b []float64) (score float64, ok bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	var na, nb float64
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// Rank sorts matches by descending score, keeps the original order on
// ties, and truncates to k when k is positive.
func Rank(matches []Match, k int) []Match {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
