// Package driving provides interfaces for use-case entry points (primary/inbound ports).
//
// These ports are implemented by the core services and consumed by the
// driving adapters (CLI, TUI).
package driving
