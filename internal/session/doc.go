// Package session owns the image being edited.
//
// A Session holds at most one decoded raster and the crop surface built over
// it. Loading a new raster destroys the old surface before the new one is
// created, so two surfaces never exist at once.
package session
