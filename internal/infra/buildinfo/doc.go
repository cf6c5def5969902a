// Package buildinfo exposes build-time information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/webstore-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When Commit is not injected it is read from the VCS stamp the Go
// toolchain embeds in the binary.
package buildinfo
