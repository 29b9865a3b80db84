// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `loader.go` calls `validateStruct` immediately after it unmarshals the
// merged Koanf tree.  Any failure aborts startup, so the binary never runs
// with partial or malformed configuration.
//
// Field tags cover the simple rules.  The one cross-field rule, "the chosen
// store driver has its connection setting", is a struct-level validation
// registered below.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterStructValidation(storeRules, Store{})
	return val
}

// storeRules requires DSN for SQL drivers and RedisAddr for redis.
func storeRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(Store)
	switch s.Driver {
	case "mysql", "postgres":
		if s.DSN == "" {
			sl.ReportError(s.DSN, "DSN", "dsn", "required_for_driver", s.Driver)
		}
	case "redis":
		if s.RedisAddr == "" {
			sl.ReportError(s.RedisAddr, "RedisAddr", "redis_addr", "required_for_driver", s.Driver)
		}
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
