package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/quarry/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// metadataKeyPattern restricts filter keys, which are interpolated into
// JSON paths.
var metadataKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// vectorIndex implements driven.VectorIndex over the documents table.
// Search is a brute-force scan of the collection.
type vectorIndex struct {
	store      *Store
	collection string
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add inserts entries in one transaction. Replacing an existing ID keeps
// its original insertion position.
func (v *vectorIndex) Add(ctx context.Context, entries ...domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM documents WHERE collection = ?", v.collection,
	).Scan(&seq); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, seq, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: document ID must be set", domain.ErrInvalidInput)
		}
		metaJSON, err := json.Marshal(domain.ScalarMetadata(e.Metadata))
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", e.ID, err)
		}
		seq++
		if _, err := stmt.ExecContext(ctx, v.collection, e.ID, seq, e.Text,
			string(metaJSON), float32SliceToBytes(e.Embedding)); err != nil {
			return fmt.Errorf("inserting document %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}
	return nil
}

// Search scans every embedding in the collection and returns the k
// nearest by cosine distance.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ContextChunk, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, text, metadata, embedding FROM documents
		WHERE collection = ? AND embedding IS NOT NULL
		ORDER BY seq
	`, v.collection)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ContextChunk
	var scored []similarity.Scored
	for rows.Next() {
		var id, text, metaJSON string
		var blob []byte
		if err := rows.Scan(&id, &text, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		emb, err := bytesToFloat32Slice(blob)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		dist, err := similarity.CosineDistance(query, emb)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		scored = append(scored, similarity.Scored{Index: len(chunks), Distance: dist})
		chunks = append(chunks, domain.ContextChunk{ID: id, Text: text, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	top := similarity.TopK(scored, k)
	out := make([]domain.ContextChunk, len(top))
	for i, s := range top {
		c := chunks[s.Index]
		d := s.Distance
		c.Distance = &d
		out[i] = c
	}
	return out, nil
}

// GetByMetadata returns documents whose metadata equals every filter value.
func (v *vectorIndex) GetByMetadata(ctx context.Context, filter map[string]any, limit int) ([]domain.ContextChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !metadataKeyPattern.MatchString(k) {
			return nil, fmt.Errorf("%w: metadata key %q", domain.ErrInvalidInput, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var where strings.Builder
	args := []any{v.collection}
	where.WriteString("collection = ?")
	for _, k := range keys {
		where.WriteString(` AND json_extract(metadata, '$.` + k + `') = ?`)
		args = append(args, filterValue(filter[k]))
	}
	args = append(args, limit)

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, text, metadata FROM documents WHERE "+where.String()+" ORDER BY seq LIMIT ?", args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents by metadata: %w", err)
	}
	defer rows.Close()

	var out []domain.ContextChunk
	for rows.Next() {
		var c domain.ContextChunk
		var metaJSON string
		if err := rows.Scan(&c.ID, &c.Text, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if c.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return nil, fmt.Errorf("document %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

// Count returns the number of documents in the collection.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", v.collection,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Clear removes every document in the collection.
func (v *vectorIndex) Clear(ctx context.Context) error {
	if _, err := v.store.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ?", v.collection); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// Close is a no-op. The owning Store closes the database.
func (v *vectorIndex) Close() error {
	return nil
}

// filterValue converts a filter value to the form json_extract yields.
// JSON booleans come back as 1 and 0.
func filterValue(v any) any {
	switch val := domain.ScalarMetadata(map[string]any{"v": v})["v"].(type) {
	case bool:
		return boolToInt(val)
	default:
		return val
	}
}

// decodeMetadata restores scalar metadata. Integral JSON numbers decode
// to int64 and the rest to float64.
func decodeMetadata(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	for k, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			raw[k] = i
		} else if f, err := n.Float64(); err == nil {
			raw[k] = f
		}
	}
	return raw, nil
}
