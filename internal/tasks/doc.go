// Package tasks runs long export jobs over many masses with real-time progress reporting.
//
// # Core Operations
//
// [ExportEngine.BulkExport] renders a set of masses to one format:
//   - Loads each program through a [ProgramLoader], spaced out by a rate limiter
//   - Renders and writes files from a bounded worker pool
//   - Writes export_manifest.json summarizing every mass, failed ones included
//
// A failure on one mass never aborts the others. Each single export stays all-or-nothing: a mass either
// has its complete file in the output directory or an error in the manifest.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
