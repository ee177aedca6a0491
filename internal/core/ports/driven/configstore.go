package driven

// ConfigStore is a flat view over the nested config file. Keys are dotted
// paths such as "warehouse.tables" or "retrieval.default_top_k".
//
// The typed getters return the zero value when a key is missing or holds
// a value of another type. Integral floats read back from TOML count as
// integers.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes through to the backing file, if any.
	Set(key string, value any) error
}
