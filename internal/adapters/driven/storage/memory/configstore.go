package memory

import (
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore used by tests.
//
// Values set as strings are coerced by the typed getters, so
// Set("retrieval.default_top_k", "20") reads back as GetInt 20.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// NewConfigStoreFrom creates a config store seeded with values.
func NewConfigStoreFrom(values map[string]any) *ConfigStore {
	s := NewConfigStore()
	for k, v := range values {
		s.values[normaliseKey(k)] = v
	}
	return s
}

// Get retrieves a configuration value by key. Keys are case-insensitive.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[normaliseKey(key)]
	return val, ok
}

// GetString returns strings as-is and formats numbers and bools.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// GetInt returns 0 for missing or non-numeric values.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// GetBool accepts bools and the strings strconv.ParseBool understands.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// GetStringSlice returns a copy of a slice value. A string value is
// split on commas.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		var result []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		return result
	default:
		return nil
	}
}

// Set stores a configuration value. Slices are copied.
func (s *ConfigStore) Set(key string, value any) error {
	if v, ok := value.([]string); ok {
		value = append([]string(nil), v...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[normaliseKey(key)] = value
	return nil
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
