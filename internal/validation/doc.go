// Package validation implements the three-layer verification of extracted
// invoice records: JSON schema validation, cross-field business rules
// (BR-001 through BR-006), and confidence scoring. All three layers run on
// every candidate; an early failure never suppresses the later layers.
package validation
