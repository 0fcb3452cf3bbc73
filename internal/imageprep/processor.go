package imageprep

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"

	"fatura/internal/logging"
	"fatura/internal/services"
)

// DefaultMaxEdge caps the longest edge of normalized pages.
const DefaultMaxEdge = 4096

// ProcessedImage is one normalized page ready for provider submission.
type ProcessedImage struct {
	// PageIndex is zero-based and follows source page order.
	PageIndex int
	Width     int
	Height    int
	// Format is always "png" after normalization.
	Format  string
	Content []byte
	// ContentHash is the hex SHA-256 of Content. Stable across runs for
	// identical input, so it doubles as a dedupe key.
	ContentHash string
}

// Normalizer decodes source documents into provider-ready PNG pages.
type Normalizer struct {
	maxEdge int
	logger  *slog.Logger
}

// NewNormalizer constructs a Normalizer. maxEdge values below 1 fall back to
// DefaultMaxEdge.
func NewNormalizer(maxEdge int, logger *slog.Logger) *Normalizer {
	if maxEdge < 1 {
		maxEdge = DefaultMaxEdge
	}
	return &Normalizer{
		maxEdge: maxEdge,
		logger:  logging.NewComponentLogger(logger, "imageprep"),
	}
}

// ProcessFile reads and normalizes the document at path.
func (n *Normalizer) ProcessFile(path string) ([]ProcessedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrImageProcessing, "image_processing", "read", "failed to read input file", err)
	}
	return n.Process(data)
}

// Process normalizes raw document bytes. Multi-page TIFFs produce one
// ProcessedImage per page in source order; PNG and JPEG produce exactly one.
func (n *Normalizer) Process(data []byte) ([]ProcessedImage, error) {
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrImageProcessing, "image_processing", "decode", "input is empty", nil)
	}

	pages, format, err := decodePages(data)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, services.Wrap(services.ErrImageProcessing, "image_processing", "decode", "document contains no pages", nil)
	}

	processed := make([]ProcessedImage, 0, len(pages))
	for i, page := range pages {
		normalized, err := n.normalizePage(page, i)
		if err != nil {
			return nil, err
		}
		processed = append(processed, normalized)
	}

	n.logger.Debug("document normalized",
		logging.String("source_format", format),
		logging.Int("pages", len(processed)),
	)
	return processed, nil
}

// normalizePage converts one page to RGB, downscales oversized pages, and
// encodes PNG. Images already within bounds keep their dimensions; upscaling
// never happens.
func (n *Normalizer) normalizePage(src image.Image, index int) (ProcessedImage, error) {
	rgb := imaging.Clone(src)

	bounds := rgb.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 1 || height < 1 {
		return ProcessedImage{}, services.Wrap(services.ErrImageProcessing, "image_processing", "normalize",
			fmt.Sprintf("page %d has empty dimensions", index), nil)
	}

	if width > n.maxEdge || height > n.maxEdge {
		if width >= height {
			rgb = imaging.Resize(rgb, n.maxEdge, 0, imaging.Lanczos)
		} else {
			rgb = imaging.Resize(rgb, 0, n.maxEdge, imaging.Lanczos)
		}
		bounds = rgb.Bounds()
		width = bounds.Dx()
		height = bounds.Dy()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgb); err != nil {
		return ProcessedImage{}, services.Wrap(services.ErrImageProcessing, "image_processing", "encode",
			fmt.Sprintf("failed to encode page %d", index), err)
	}

	content := buf.Bytes()
	digest := sha256.Sum256(content)

	return ProcessedImage{
		PageIndex:   index,
		Width:       width,
		Height:      height,
		Format:      "png",
		Content:     content,
		ContentHash: hex.EncodeToString(digest[:]),
	}, nil
}

// decodePages sniffs the container format and decodes every page.
func decodePages(data []byte) ([]image.Image, string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", services.Wrap(services.ErrImageProcessing, "image_processing", "decode", "corrupt PNG data", err)
		}
		return []image.Image{img}, "png", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", services.Wrap(services.ErrImageProcessing, "image_processing", "decode", "corrupt JPEG data", err)
		}
		return []image.Image{img}, "jpeg", nil
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		pages, err := decodeTIFF(data)
		if err != nil {
			return nil, "", err
		}
		return pages, "tiff", nil
	default:
		return nil, "", services.Wrap(services.ErrImageProcessing, "image_processing", "decode", "unsupported image format", nil)
	}
}

// decodeTIFF flattens every frame of a TIFF container in file order.
func decodeTIFF(data []byte) ([]image.Image, error) {
	frames, frameErrs, err := tiff.DecodeAll(bytes.NewReader(data))
	if err != nil && len(frames) == 0 {
		return nil, services.Wrap(services.ErrImageProcessing, "image_processing", "decode", "corrupt TIFF data", err)
	}

	var pages []image.Image
	for i := range frames {
		for j := range frames[i] {
			if frameErrs != nil && i < len(frameErrs) && j < len(frameErrs[i]) && frameErrs[i][j] != nil {
				return nil, services.Wrap(services.ErrImageProcessing, "image_processing", "decode",
					fmt.Sprintf("corrupt TIFF page %d", len(pages)), frameErrs[i][j])
			}
			if frames[i][j] != nil {
				pages = append(pages, frames[i][j])
			}
		}
	}
	return pages, nil
}
