// Package gateway coordinates LLM providers for invoice extraction. It owns
// the retry policy (exponential backoff with Retry-After hints), the single
// failover hop from primary to fallback, and the recovery of JSON payloads
// from model output.
package gateway
