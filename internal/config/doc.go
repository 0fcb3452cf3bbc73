// Package config loads, validates, and normalizes fatura configuration.
//
// Configuration is a TOML file, by default at ~/.config/fatura/config.toml,
// with a project-local fatura.toml fallback. Defaults are applied for every
// omitted field and API keys fall back to environment variables, so a fresh
// install can run with nothing but credentials exported.
package config
