package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/quarry/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Contents are lost when the process exits.
type VectorIndex struct {
	mu      sync.RWMutex
	entries []domain.IndexEntry
	byID    map[string]int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{byID: make(map[string]int)}
}

// Add stores entries. Replacing an ID keeps its original position.
func (v *VectorIndex) Add(_ context.Context, entries ...domain.IndexEntry) error {
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: document ID must be set", domain.ErrInvalidInput)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, e := range entries {
		e.Metadata = domain.ScalarMetadata(e.Metadata)
		e.Embedding = append([]float32(nil), e.Embedding...)
		if i, ok := v.byID[e.ID]; ok {
			v.entries[i] = e
			continue
		}
		v.byID[e.ID] = len(v.entries)
		v.entries = append(v.entries, e)
	}
	return nil
}

// Search returns the k entries nearest to query by cosine distance.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ContextChunk, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	scored := make([]similarity.Scored, 0, len(v.entries))
	for i, e := range v.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(e.Embedding) == 0 {
			continue
		}
		d, err := similarity.CosineDistance(query, e.Embedding)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", e.ID, err)
		}
		scored = append(scored, similarity.Scored{Index: i, Distance: d})
	}

	top := similarity.TopK(scored, k)
	out := make([]domain.ContextChunk, len(top))
	for i, s := range top {
		d := s.Distance
		out[i] = toChunk(v.entries[s.Index])
		out[i].Distance = &d
	}
	return out, nil
}

// GetByMetadata returns entries whose metadata equals every filter value.
// Numeric values compare by value, so int 7 matches int64 7.
func (v *VectorIndex) GetByMetadata(_ context.Context, filter map[string]any, limit int) ([]domain.ContextChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	want := domain.ScalarMetadata(filter)

	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []domain.ContextChunk
	for _, e := range v.entries {
		if !matches(e.Metadata, want) {
			continue
		}
		out = append(out, toChunk(e))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Clear removes every entry.
func (v *VectorIndex) Clear(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
	v.byID = make(map[string]int)
	return nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

func toChunk(e domain.IndexEntry) domain.ContextChunk {
	meta := make(map[string]any, len(e.Metadata))
	for k, val := range e.Metadata {
		meta[k] = val
	}
	return domain.ContextChunk{ID: e.ID, Text: e.Text, Metadata: meta}
}

func matches(meta, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

// scalarEqual compares scalar metadata values, treating int64 and
// float64 as the same number space.
func scalarEqual(a, b any) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
