// Package services defines shared utilities consumed by the pipeline stages
// and the LLM provider integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures
//     into the retry/fallback taxonomy (transient vs permanent vs fatal).
//   - Context helpers that stamp invoice identifiers and stage names for
//     logging.
//
// Use these helpers when wiring new stage logic so error routing stays
// uniform across the pipeline.
package services
