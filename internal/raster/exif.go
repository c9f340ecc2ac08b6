package raster

import (
	"errors"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/gridcrop/internal/model"
)

// ReadMetadata extracts an EXIF summary from encoded image bytes.
// It returns (nil, nil) when the image carries no EXIF block, which is the
// normal case for PNG input and for background-removed output.
func ReadMetadata(data []byte) (*model.ImageMetadata, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, nil
		}
		return nil, err
	}
	if rawExif == nil {
		return nil, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}

	meta := &model.ImageMetadata{TagCount: len(entries)}
	for _, entry := range entries {
		switch entry.TagName {
		case "Make":
			meta.Make = strings.TrimSpace(entry.Formatted)
		case "Model":
			meta.Model = strings.TrimSpace(entry.Formatted)
		case "Software":
			meta.Software = strings.TrimSpace(entry.Formatted)
		case "DateTimeOriginal":
			meta.DateTime = entry.Formatted
		case "DateTime":
			if meta.DateTime == "" {
				meta.DateTime = entry.Formatted
			}
		case "Orientation":
			meta.Orientation = orientationValue(entry.Value, entry.Formatted)
		default:
			if strings.HasPrefix(entry.TagName, "GPS") {
				meta.HasGPS = true
			}
		}
	}

	return meta, nil
}

// orientationValue reads the EXIF orientation (1-8) from a SHORT tag.
func orientationValue(value interface{}, formatted string) int {
	switch v := value.(type) {
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	case uint16:
		return int(v)
	}

	trimmed := strings.Trim(formatted, "[] ")
	if fields := strings.Fields(trimmed); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			return n
		}
	}
	return 0
}
