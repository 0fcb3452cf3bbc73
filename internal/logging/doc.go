// Package logging wires log/slog with the handlers and field conventions
// used across fatura. Console output is a single logfmt-style line per
// record; JSON output is the stock slog JSON handler with normalized keys.
package logging
