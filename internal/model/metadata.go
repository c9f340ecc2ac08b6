package model

// ImageMetadata is a summary of the EXIF tags found in an input image.
// Only tags that are useful in a job summary are kept.
type ImageMetadata struct {
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Software    string `json:"software,omitempty"`
	DateTime    string `json:"date_time,omitempty"`
	Orientation int    `json:"orientation,omitempty"`

	// HasGPS is true when any GPS tag is present. The coordinates themselves
	// are not copied.
	HasGPS bool `json:"has_gps"`

	// TagCount is the number of EXIF entries read.
	TagCount int `json:"tag_count"`
}

// Empty reports whether no EXIF entries were found.
func (m *ImageMetadata) Empty() bool {
	return m == nil || m.TagCount == 0
}

// Camera returns "Make Model", or whichever one is set.
func (m *ImageMetadata) Camera() string {
	if m == nil {
		return ""
	}
	switch {
	case m.Make != "" && m.Model != "":
		return m.Make + " " + m.Model
	case m.Model != "":
		return m.Model
	default:
		return m.Make
	}
}
