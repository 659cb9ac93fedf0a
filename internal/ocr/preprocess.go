package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// minOCRHeight is the height, in pixels, small scans are upscaled to.
const minOCRHeight = 1200

// preprocess grayscales, upscales small scans, boosts contrast and sharpens
// an encoded image, returning it as PNG.
func preprocess(img []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := imaging.Grayscale(src)
	if out.Bounds().Dy() < minOCRHeight {
		out = imaging.Resize(out, 0, minOCRHeight, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 30)
	out = imaging.Sharpen(out, 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
