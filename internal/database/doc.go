// Package database provides SQLite-based job history for gridcrop.
//
// Every processed file is recorded in a jobs table: the source path and its
// BLAKE2b hash, decoded size and format, the requested edits, how many
// images were produced, and the outcome. The EXIF summary is stored as
// JSON.
//
// modernc.org/sqlite is CGO-free, so the binary cross-compiles without a
// C toolchain, and the history is a single file under the XDG data
// directory.
package database
