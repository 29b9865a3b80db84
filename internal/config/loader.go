// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `FORMACTION_`, where `__` maps to “.”
     (e.g., `FORMACTION_HTTP__LISTEN_ADDR → http.listen_addr`).

Any merged string of the form `vault:<path>#<key>` is then replaced with the
secret it names.  The tree is unmarshalled into typed structs, validated,
enriched with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.

Instrumentation
---------------
  • DEBUG: root discovery, YAML read, vault resolution.
  • ERROR: YAML parse, env overlay, unmarshal, validation failures.
  • INFO:  final “config loaded” with key highlights.
  • Logs use the global logger (`zap.L()`) so early boot issues surface
    before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`, so
    `go run ./cmd/web` works from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/vault"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "FORMACTION_"

var current atomic.Pointer[Config]

// Resolver turns a "vault:" reference into its secret value.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Options tunes Load.  The zero value discovers the root and creates a
// Vault client only if the config contains references.
type Options struct {
	Root     string
	Resolver Resolver
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves FORMACTION_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable's parent for a
// bin/ layout.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load(ctx context.Context, opts Options) (*Config, error) {
	log := zap.L()

	root := opts.Root
	if root == "" {
		root = rootDir()
	}
	log.Debug("config root resolved", zap.String("root", root))

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		log.Error("config yaml load failed", zap.String("file", yamlPath), zap.Error(err))
		return nil, err
	}
	log.Debug("config yaml loaded", zap.String("file", yamlPath))

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		log.Error("config env overlay failed", zap.Error(err))
		return nil, err
	}

	if err := resolveSecrets(ctx, k, opts.Resolver); err != nil {
		log.Error("config secret resolution failed", zap.Error(err))
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		log.Error("config unmarshal failed", zap.Error(err))
		return nil, err
	}

	cfg.Paths.Root = root
	if cfg.Forms.Dir == "" {
		cfg.Forms.Dir = root
	}
	if err := validateStruct(&cfg); err != nil {
		log.Error("config validation failed", zap.Error(err))
		return nil, err
	}

	current.Store(&cfg)
	log.Info("config loaded",
		zap.String("listen_addr", cfg.HTTP.ListenAddr),
		zap.Bool("force_https", cfg.HTTP.ForceHTTPS),
		zap.String("store", cfg.Store.Driver),
		zap.String("root", cfg.Paths.Root),
	)
	return &cfg, nil
}

// envKey maps FORMACTION_HTTP__LISTEN_ADDR → http.listen_addr.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets replaces every "vault:" string in k.  Keys are visited in
// sorted order so errors are deterministic.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, r Resolver) error {
	all := k.All()
	var refs []string
	for key, val := range all {
		if s, ok := val.(string); ok && vault.IsRef(s) {
			refs = append(refs, key)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	sort.Strings(refs)

	if r == nil {
		cli, err := vault.New(ctx, zap.L())
		if err != nil {
			return err
		}
		r = cli
	}

	for _, key := range refs {
		val, err := r.Resolve(ctx, all[key].(string))
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
		zap.L().Debug("config secret resolved", zap.String("key", key))
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last successfully loaded Config, or nil.
func Get() *Config { return current.Load() }
