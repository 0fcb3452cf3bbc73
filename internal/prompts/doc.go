// Package prompts holds the vendor-specific extraction prompt templates
// sent to vision models alongside normalized invoice pages.
package prompts
