// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.quarry.
//
// Adapters:
//   - ConfigStore: TOML configuration (config.toml)
//   - PromptStore: user-editable prompt templates (prompts/*.txt)
//   - PromptWatcher: reloads a PromptStore when its files change
package file
