// Package invoice defines the domain types shared across the extraction
// pipeline, including the structured invoice record produced by the LLM
// providers and the per-file extraction result.
//
// Monetary values use fixed-point decimals throughout; float64 never carries
// money. Stages hand each other fresh values rather than mutating shared
// state.
package invoice
