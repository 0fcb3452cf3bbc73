// Package pipeline orchestrates the per-invoice state machine: image
// normalization, prompt rendering, gateway extraction, validation, and
// artifact writing. Batch runs fan the same machine out over a bounded
// worker pool with a SQLite ledger row per input file.
package pipeline
