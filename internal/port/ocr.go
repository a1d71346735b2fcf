package port

import "context"

// OCRProvider recovers a text layer from an image-only page. Implementations
// must return an empty string on failure rather than leaking provider errors
// past the boundary; the error is informational and becomes a warning.
type OCRProvider interface {
	ExtractText(ctx context.Context, pdfPath string, page int) (string, error)
}
