// Package confloader provides configuration loading mechanism.
//
// It wraps koanf to load configuration from multiple sources and
// unmarshal it into typed structs. Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Values already set in the target struct
//
// Watcher reports changes to configuration files via fsnotify.
package confloader
