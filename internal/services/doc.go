// Package services defines shared utilities consumed by the ingestion,
// analysis, structuring, and persistence layers.
//
// Key responsibilities:
//   - Context helpers that stamp course IDs, pipeline stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform from clustering through storage.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the codebase.
package services
