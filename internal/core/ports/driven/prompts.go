package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// Called when prompt files are edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system prompt for answer synthesis.
	// It has no placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the retrieved context and the question.
	// The template expects two %s placeholders: context, then question.
	PromptAnswerUser = "answer_user"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses built-in prompts.
	SetPromptStore(store PromptStore)
}
