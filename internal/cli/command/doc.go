// Package command provides the webstore CLI commands.
//
// Commands are defined with urfave/cli/v2:
//
//   - root.go: App, global flags, configuration and logger setup
//   - session.go: opening the configured store and its mirror
//   - data.go: get, set, rm, ls, default, reset
//   - watch.go: long-running sync loop with metrics and config reload
//   - backup.go: snapshot create, list and restore
//   - config.go: show and validate the effective configuration
//   - version.go: build information
//
// Every data command loads the mirror, applies its change, runs one
// sync cycle and closes the store.
package command
