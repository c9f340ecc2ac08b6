// Package removal removes image backgrounds.
//
// A Service takes encoded image bytes and returns a PNG with the background
// made transparent. While it works it reports progress through stage tags:
// a tag containing "fetch" carries measurable current/total values and a
// tag containing "compute" marks the start of work that reports nothing
// further until it finishes.
//
// Two services are provided. Remote posts the image to an HTTP inference
// endpoint. Local runs an offline colour flood fill from the image border.
package removal
