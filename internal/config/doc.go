// Package config provides the webstore configuration.
//
// This package defines the configuration structure and validation:
//
//   - config.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (store kind, intervals, log settings)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
