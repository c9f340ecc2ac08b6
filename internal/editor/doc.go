// Package editor ties the image session, background remover, progress
// indicator and notifications together behind the operations a user
// performs: load, rotate, reset, remove background, crop and split.
//
// Every operation reports its outcome as a notification. Errors are also
// returned so callers can act on them, and a failed operation never leaves
// the session unusable.
package editor
