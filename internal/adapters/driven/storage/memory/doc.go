// Package memory provides in-memory implementations of the driven ports:
// a brute-force vector index and a config store. Nothing is persisted.
package memory
