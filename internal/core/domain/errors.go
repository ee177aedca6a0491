package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRow indicates a warehouse row could not be formatted,
	// typically because a key column is not numeric. The row is skipped.
	ErrInvalidRow = errors.New("invalid row")

	// ErrIndexInProgress indicates an indexing run is already active.
	ErrIndexInProgress = errors.New("index run in progress")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index cannot be reached.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRowSourceUnavailable indicates the warehouse cannot be reached.
	ErrRowSourceUnavailable = errors.New("row source unavailable")

	// Provider Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	// Callers retry with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates the account has no remaining quota.
	// Unlike ErrRateLimited this is not retried.
	ErrQuotaExceeded = errors.New("quota exceeded")
)
