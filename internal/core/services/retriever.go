package services

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/logger"
)

// ContextSeparator is placed between documents in an assembled context.
var ContextSeparator = "\n\n" + strings.Repeat("-", 40) + "\n\n"

// userFetchLimit bounds the user documents fetched per referenced user_id.
const userFetchLimit = 10

// Retriever classifies a question, searches the vector index and orders
// the results into a capped context.
type Retriever struct {
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	classifier *Classifier
	cfg        domain.RetrievalSettings
}

// NewRetriever creates a retriever. Zero settings fall back to defaults.
func NewRetriever(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg domain.RetrievalSettings,
) *Retriever {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = domain.DefaultTopK
	}
	if cfg.AggregationTopK <= 0 {
		cfg.AggregationTopK = domain.DefaultAggregationTopK
	}
	if cfg.MaxContextDocs <= 0 {
		cfg.MaxContextDocs = domain.DefaultMaxContextDocs
	}
	if cfg.CountTimeout <= 0 {
		cfg.CountTimeout = domain.DefaultCountTimeout
	}
	return &Retriever{
		embedder:   embedder,
		index:      index,
		classifier: NewClassifier(),
		cfg:        cfg,
	}
}

// Retrieve gathers context for a question. Index and embedding failures
// degrade to an empty context. The returned error is reserved for
// cancellation of ctx.
func (r *Retriever) Retrieve(ctx context.Context, question string) (domain.Retrieval, error) {
	logger.Section("Retrieval")

	intent := r.classifier.Classify(question)
	result := domain.Retrieval{Intent: intent, IndexCount: -1}
	logger.Debug("Intent: aggregation=%t domains=%v primary=%q", intent.Aggregation, intent.Domains, intent.Primary())

	if strings.TrimSpace(question) == "" {
		return result, nil
	}
	if r.embedder == nil || r.index == nil {
		logger.Warn("Retrieval unavailable: embedding=%t index=%t", r.embedder != nil, r.index != nil)
		return result, nil
	}

	result.TopK = r.cfg.DefaultTopK
	if intent.Aggregation {
		result.IndexCount = countWithDeadline(ctx, r.index, r.cfg.CountTimeout)
		result.TopK = aggregationBreadth(result.IndexCount, r.cfg.AggregationTopK)
	}
	logger.Debug("Breadth: top-k=%d (index count %d)", result.TopK, result.IndexCount)

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		logger.Warn("Embedding question failed: %v", err)
		return result, nil
	}

	chunks, err := r.index.Search(ctx, vec, result.TopK)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		logger.Warn("Vector search failed: %v", err)
		return result, nil
	}
	logger.Debug("Search returned %d chunks", len(chunks))

	if intent.Aggregation {
		chunks = append(r.fetchSummaries(ctx, intent, chunks), chunks...)
	}
	if intent.HasDomain(domain.DomainReview) {
		chunks = append(chunks, r.fetchUsers(ctx, chunks)...)
	}

	ordered := orderChunks(intent, dedupe(chunks))
	if len(ordered) > r.cfg.MaxContextDocs {
		ordered = ordered[:r.cfg.MaxContextDocs]
	}
	result.Chunks = ordered
	result.Context = joinContext(ordered)
	logger.Info("Context: %d documents, %d chars", len(ordered), len(result.Context))
	return result, nil
}

// aggregationBreadth widens the search toward the whole index, bounded by
// limit. An unknown or empty count uses limit.
func aggregationBreadth(count, limit int) int {
	if count > 0 {
		return min(limit, count)
	}
	return limit
}

// countWithDeadline returns the index size, or -1 if it fails or does not
// answer within timeout. The caller never waits longer than timeout even
// if the index ignores cancellation.
func countWithDeadline(ctx context.Context, index driven.VectorIndex, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type countResult struct {
		n   int
		err error
	}
	ch := make(chan countResult, 1)
	go func() {
		n, err := index.Count(ctx)
		ch <- countResult{n, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			logger.Debug("Count failed: %v", res.err)
			return -1
		}
		return res.n
	case <-ctx.Done():
		logger.Debug("Count timed out after %s", timeout)
		return -1
	}
}

// fetchSummaries returns the summary documents relevant to the intent that
// are missing from chunks. With no domain matched the product summary is
// used. Fetch errors are logged and ignored.
func (r *Retriever) fetchSummaries(ctx context.Context, intent domain.Intent, chunks []domain.ContextChunk) []domain.ContextChunk {
	wanted := []domain.DocType{domain.DocTypeProduct.Summary()}
	if len(intent.Domains) > 0 {
		wanted = nil
		for _, d := range intent.Domains {
			wanted = append(wanted, d.SummaryTypes()...)
		}
	}

	present := map[domain.DocType]bool{}
	for _, c := range chunks {
		if c.Type().IsSummary() {
			present[c.Type()] = true
		}
	}

	var fetched []domain.ContextChunk
	seen := map[domain.DocType]bool{}
	for _, t := range wanted {
		if present[t] || seen[t] {
			continue
		}
		seen[t] = true
		got, err := r.index.GetByMetadata(ctx, map[string]any{domain.MetaType: string(t)}, 1)
		if err != nil {
			logger.Debug("Supplementary fetch for %s failed: %v", t, err)
			continue
		}
		logger.Debug("Supplementary fetch for %s: %d documents", t, len(got))
		fetched = append(fetched, got...)
	}
	return fetched
}

// fetchUsers resolves user_id references on review chunks to user
// documents not already present. Fetch errors are logged and ignored.
func (r *Retriever) fetchUsers(ctx context.Context, chunks []domain.ContextChunk) []domain.ContextChunk {
	have := map[string]bool{}
	for _, c := range chunks {
		if c.Type() == domain.DocTypeUser {
			if id, ok := c.Metadata["user_id"]; ok {
				have[metaKey(id)] = true
			}
		}
	}

	var fetched []domain.ContextChunk
	for _, c := range chunks {
		if c.Type() != domain.DocTypeReview {
			continue
		}
		id, ok := c.Metadata["user_id"]
		if !ok || have[metaKey(id)] {
			continue
		}
		have[metaKey(id)] = true
		got, err := r.index.GetByMetadata(ctx, map[string]any{
			domain.MetaType: string(domain.DocTypeUser),
			"user_id":       id,
		}, userFetchLimit)
		if err != nil {
			logger.Debug("User fetch for %v failed: %v", id, err)
			continue
		}
		fetched = append(fetched, got...)
	}
	return fetched
}

// orderChunks partitions chunks into summaries, matched-domain entities and
// the rest, then orders the buckets by intent:
//
//	aggregation: summaries, domain entities, rest
//	domain only: domain entities, summaries, rest
//	neutral:     summaries, rest
//
// Within the summary bucket the matched domains' summaries come first, in
// domain priority order. Otherwise chunks keep their incoming order.
func orderChunks(intent domain.Intent, chunks []domain.ContextChunk) []domain.ContextChunk {
	rank := map[domain.DocType]int{}
	for i, d := range intent.Domains {
		for _, t := range d.EntityTypes() {
			if _, ok := rank[t]; !ok {
				rank[t] = i
			}
		}
	}

	domainBuckets := make([][]domain.ContextChunk, len(intent.Domains))
	var ownSummaries, otherSummaries, rest []domain.ContextChunk
	for _, c := range chunks {
		t := c.Type()
		switch {
		case t.IsSummary():
			if _, ok := rank[t.Entity()]; ok {
				ownSummaries = append(ownSummaries, c)
			} else {
				otherSummaries = append(otherSummaries, c)
			}
		default:
			if i, ok := rank[t]; ok {
				domainBuckets[i] = append(domainBuckets[i], c)
			} else {
				rest = append(rest, c)
			}
		}
	}

	slices.SortStableFunc(ownSummaries, func(a, b domain.ContextChunk) int {
		return rank[a.Type().Entity()] - rank[b.Type().Entity()]
	})
	summaries := append(ownSummaries, otherSummaries...)
	var entities []domain.ContextChunk
	for _, b := range domainBuckets {
		entities = append(entities, b...)
	}

	out := make([]domain.ContextChunk, 0, len(chunks))
	switch {
	case intent.Aggregation:
		out = append(out, summaries...)
		out = append(out, entities...)
	case len(intent.Domains) > 0:
		out = append(out, entities...)
		out = append(out, summaries...)
	default:
		out = append(out, summaries...)
		out = append(out, entities...)
	}
	return append(out, rest...)
}

// dedupe drops repeated documents, keeping the first occurrence.
func dedupe(chunks []domain.ContextChunk) []domain.ContextChunk {
	seen := map[string]bool{}
	out := chunks[:0:0]
	for _, c := range chunks {
		k := c.ID
		if k == "" {
			k = "text:" + c.Text
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

func joinContext(chunks []domain.ContextChunk) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) != "" {
			texts = append(texts, c.Text)
		}
	}
	return strings.Join(texts, ContextSeparator)
}

// metaKey normalises metadata identifiers so int64(7), 7.0 and "7" compare equal.
func metaKey(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return strings.TrimSpace(n)
	default:
		return ""
	}
}
