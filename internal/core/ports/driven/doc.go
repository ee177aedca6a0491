// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RowSource: Reads warehouse tables (SQL Server, SQLite)
//   - DocumentAssembler: Turns tables into documents
//   - VectorIndex: Stores and searches embedded documents
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Chat completion for answer synthesis
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Services fall back to
//     built-in prompts when it is not set.
//   - SchedulerStore: Persists scheduler state between restarts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
