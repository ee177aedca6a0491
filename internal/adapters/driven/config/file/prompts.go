package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptDir is the prompt directory name inside the config directory.
const PromptDir = "prompts"

// PromptStore loads LLM prompts from user-editable files on disk, with
// fallback to built-in defaults.
//
// Files are only created on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	defaults  map[string]string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store seeded with
// defaults, keyed by prompt name. If promptDir is empty, defaults to
// ~/.quarry/prompts/.
func NewPromptStore(promptDir string, defaults map[string]string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, PromptDir)
	}

	copied := make(map[string]string, len(defaults))
	for k, v := range defaults {
		copied[k] = v
	}
	return &PromptStore{
		promptDir: promptDir,
		defaults:  copied,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for name. A file whose %s placeholders
// do not match the default's is ignored with a warning, because the
// caller formats it with a fixed argument list.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	def, hasDefault := s.defaults[name]
	prompt, err := s.loadFromFile(name)
	switch {
	case err != nil && hasDefault:
		prompt = def
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case hasDefault && placeholders(prompt) != placeholders(def):
		logger.Warn("prompt %s.txt has %d %%s placeholders, expected %d; using the built-in prompt",
			name, placeholders(prompt), placeholders(def))
		prompt = def
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func placeholders(s string) int {
	return strings.Count(s, "%s")
}

// initialise creates the prompt directory and writes any missing default
// files. Failures are logged and Load falls back to the defaults.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("%v", s.initErr)
		return
	}

	for name, content := range s.defaults {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				logger.Warn("%v", s.initErr)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Quarry Prompts\n\n")
	b.WriteString("These files hold the prompts used to answer questions.\n\n## Files\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s.txt` (%d %%s placeholders)\n", name, placeholders(s.defaults[name]))
	}
	b.WriteString("\n## Customisation\n\n")
	b.WriteString("Edit any file to change how answers are written. `quarry serve` picks up\n")
	b.WriteString("changes immediately; other commands read the files on start.\n\n")
	b.WriteString("`answer_user.txt` receives the retrieved context, then the question.\n")
	b.WriteString("Keep the `%s` placeholders in that order or the built-in prompt is used.\n")

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("create prompt README: %w", err)
	}
	return nil
}
