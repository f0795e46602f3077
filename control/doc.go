// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug introspection
// layer for the selector/rpc reactor core.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for hot-reload
//   - Metrics telemetry contracts, wired to selector.Selector load via Registry
//   - State export, debug hooks, and probe registration
//
// This package is build-tag-partitioned: RegisterPlatformProbes is defined
// only for Linux and Windows, so the package builds on those two platforms
// and not on others.
package control
