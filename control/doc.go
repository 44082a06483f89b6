// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration, metrics and debug introspection for the capture
// pipeline.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and merged updates with reload listeners
//   - A metrics registry the pipeline publishes its counters into
//   - Named debug probes, including platform probes
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
