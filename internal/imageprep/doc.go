// Package imageprep normalizes source invoice documents into PNG pages
// suitable for vision model submission. Multi-page TIFF containers are
// split into individual pages; oversized pages are downscaled to a bounded
// longest edge; images are never upscaled.
package imageprep
