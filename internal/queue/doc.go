// Package queue persists the processing ledger for invoice files in SQLite.
// Every file handed to the pipeline gets a ledger row tracking its lifecycle
// from pending through processing to completed or failed, along with the
// extraction provenance (provider, confidence, output artifact) once known.
package queue
