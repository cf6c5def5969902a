// Package output renders webstore CLI results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned NAME/VALUE tables, truncated unless wide
//   - json.go: indented JSON
//   - yaml.go: YAML via gopkg.in/yaml.v3
package output
