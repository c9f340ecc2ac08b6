package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/nao1215/gridcrop/internal/model"
)

// EncodePNG encodes img as PNG with the given compression level.
// Empty rasters are rejected because PNG cannot represent them.
func EncodePNG(img image.Image, level png.CompressionLevel) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", model.ErrProcessing, ErrEmptyRaster)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
		return nil, fmt.Errorf("%w: failed to encode png: %w", model.ErrProcessing, err)
	}
	return buf.Bytes(), nil
}
