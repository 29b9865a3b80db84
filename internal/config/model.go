// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/global.yaml`                           – primary static file,
//   • `FORMACTION_`-prefixed environment overrides – highest precedence.
//
// Any string value beginning with `vault:` is resolved through a Resolver
// *before* unmarshalling, so the model never stores Vault references, only
// plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

//
// Store section
//

// Store selects and configures the user store.
//
// DSN is required for mysql and postgres, RedisAddr for redis.  MaxDelay
// applies to the memory store only and simulates a slow backend.
type Store struct {
	Driver      string        `koanf:"driver"       validate:"required,oneof=memory mysql postgres redis"`
	DSN         string        `koanf:"dsn"`
	RedisAddr   string        `koanf:"redis_addr"`
	RedisPrefix string        `koanf:"redis_prefix"`
	MaxDelay    time.Duration `koanf:"max_delay"    validate:"gte=0"`
	Migrate     bool          `koanf:"migrate"`
}

//
// Action section
//

// Action tunes the action boundary.  A zero Timeout leaves processors
// unbounded.
type Action struct {
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

//
// Forms, CSRF, Log, and GeoIP sections
//

// Forms points at the directory holding components/*/forms.
type Forms struct {
	Dir string `koanf:"dir"`
}

// CSRF holds the token signing key, base64url without padding.  Empty means
// a random per-process key.
type CSRF struct {
	Key string `koanf:"key"`
}

// Log configures the file logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// GeoIP points at an optional MaxMind City database.  Empty disables
// geolocation.
type GeoIP struct {
	DB string `koanf:"db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // FORMACTION_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP   HTTP   `koanf:"http"`
	Store  Store  `koanf:"store"`
	Action Action `koanf:"action"`
	Forms  Forms  `koanf:"forms"`
	CSRF   CSRF   `koanf:"csrf"`
	Log    Log    `koanf:"log"`
	GeoIP  GeoIP  `koanf:"geoip"`
	Paths  Paths  `koanf:"-"`
}
