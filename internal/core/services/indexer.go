package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService rebuilds the vector index from warehouse tables.
type IndexService struct {
	source    driven.RowSource
	assembler driven.DocumentAssembler
	embedder  *BatchEmbedder
	index     driven.VectorIndex
	tables    []string
	countWait time.Duration

	mu      sync.Mutex
	running bool
}

// NewIndexService creates an index service. tables is the default table
// list used when a run does not name its own.
func NewIndexService(
	source driven.RowSource,
	assembler driven.DocumentAssembler,
	embedder *BatchEmbedder,
	index driven.VectorIndex,
	tables []string,
) *IndexService {
	return &IndexService{
		source:    source,
		assembler: assembler,
		embedder:  embedder,
		index:     index,
		tables:    tables,
		countWait: domain.DefaultCountTimeout,
	}
}

// Index runs a full rebuild. Embedding happens before the index is
// touched, so a failed run leaves the previous contents in place.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *IndexService) Index(
	ctx context.Context, opts domain.IndexOptions, observer domain.IndexObserver,
) (domain.IndexReport, error) {
	if s.source == nil {
		return domain.IndexReport{}, domain.ErrRowSourceUnavailable
	}
	if s.index == nil {
		return domain.IndexReport{}, domain.ErrVectorIndexUnavailable
	}
	if s.embedder == nil {
		return domain.IndexReport{}, domain.ErrEmbeddingUnavailable
	}
	if !s.begin() {
		return domain.IndexReport{}, domain.ErrIndexInProgress
	}
	defer s.end()

	emit := func(ev domain.IndexEvent) {
		if observer != nil {
			observer(ev)
		}
	}

	started := time.Now()
	report := domain.IndexReport{RunID: uuid.New().String(), Count: -1}
	logger.Section("Indexing")
	logger.Info("Run %s started", report.RunID)

	// 1. Read tables
	if err := s.source.Ping(ctx); err != nil {
		return report, fmt.Errorf("warehouse: %w", err)
	}
	tables := opts.Tables
	if len(tables) == 0 {
		tables = s.tables
	}
	var data []domain.TableData
	for _, name := range tables {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		td, err := s.source.ReadTable(ctx, name)
		if err != nil {
			logger.Warn("Skipping table %s: %v", name, err)
			report.FailedTables = append(report.FailedTables, name)
			emit(domain.IndexEvent{Stage: domain.StageRead, Table: name, Err: err})
			continue
		}
		data = append(data, td)
		emit(domain.IndexEvent{Stage: domain.StageRead, Table: name, Rows: len(td.Rows)})
	}
	report.Tables = len(data)

	// 2. Assemble documents
	docs, ar := s.assembler.Assemble(data)
	report.Documents = len(docs)
	report.SkippedRows = ar.SkippedRows
	emit(domain.IndexEvent{Stage: domain.StageAssemble, Done: len(docs), Total: len(docs)})
	logger.Info("Assembled %d documents (%d summaries, %d rows skipped)", len(docs), ar.Summaries, ar.SkippedRows)

	if len(docs) == 0 {
		return report, fmt.Errorf("%w: no documents assembled from %d tables", domain.ErrInvalidInput, len(tables))
	}

	// 3. Embed
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := s.embedder.EmbedAll(ctx, texts, func(done, total int) {
		emit(domain.IndexEvent{Stage: domain.StageEmbed, Done: done, Total: total})
	})
	if err != nil {
		return report, fmt.Errorf("embed documents: %w", err)
	}

	// 4. Clear
	if opts.Clear {
		if err := s.index.Clear(ctx); err != nil {
			return report, fmt.Errorf("clear index: %w", err)
		}
		emit(domain.IndexEvent{Stage: domain.StageClear})
	}

	// 5. Store
	entries := make([]domain.IndexEntry, len(docs))
	for i, d := range docs {
		entries[i] = domain.IndexEntry{ID: d.ID, Embedding: vecs[i], Text: d.Text, Metadata: d.Metadata}
	}
	if err := s.index.Add(ctx, entries...); err != nil {
		return report, fmt.Errorf("store documents: %w", err)
	}
	emit(domain.IndexEvent{Stage: domain.StageStore, Done: len(entries), Total: len(entries)})

	// 6. Count
	report.Count = countWithDeadline(ctx, s.index, s.countWait)
	report.Duration = time.Since(started)
	emit(domain.IndexEvent{Stage: domain.StageDone, Done: report.Count, Total: len(entries)})
	logger.Info("Run %s finished in %s, index holds %d documents", report.RunID, report.Duration, report.Count)
	return report, nil
}

// Reset drops every stored document.
func (s *IndexService) Reset(ctx context.Context) error {
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if !s.begin() {
		return domain.ErrIndexInProgress
	}
	defer s.end()

	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

func (s *IndexService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *IndexService) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
