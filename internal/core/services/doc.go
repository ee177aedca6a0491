// Package services holds Quarry's use cases: assembling and embedding the
// warehouse into the vector index, answering questions over it, the nightly
// reindex schedule and settings management.
//
// Services depend only on domain types and driven ports.
package services
