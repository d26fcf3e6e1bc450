// Package buildinfo identifies the running BotCore binary.
//
// Version, Commit and BuildTime are injected via ldflags at release
// time and default to development placeholders; the Go version is
// read from the runtime. The daemon logs this identity at startup
// and serves it through `--version`.
package buildinfo
