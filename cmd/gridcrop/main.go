// Package main provides the entry point for the gridcrop CLI.
//
// gridcrop crops images, optionally removes their background, and splits
// the crop into a grid of equal tiles.
//
// Usage:
//
//	gridcrop crop photo.jpg
//	gridcrop split --rows 2 --cols 3 photo.jpg
//	gridcrop history
//
// See --help for all available options.
package main

// main is the entry point for gridcrop.
func main() {
	Execute()
}
