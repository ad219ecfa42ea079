// Package services defines shared utilities consumed by the ingestion engine
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, cycle names, and pipeline
//     stages for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the run taxonomy (transient fetch, upstream data, record
//     conversion, store read/write, batch commit).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across the engine.
package services
