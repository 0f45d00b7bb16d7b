package config

// ConfigBackend abstracts platform-specific config storage. Keys are
// dotted "section.name" pairs. macOS keeps them in UserDefaults, other
// platforms in a TOML file under the XDG config directory.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	GetBool(key string) (val bool, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	SetBool(key string, val bool) error
	Delete(key string) error
}
