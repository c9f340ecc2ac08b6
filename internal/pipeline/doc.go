// Package pipeline runs the edits requested for each input file as a
// sequence of steps.
//
// A Pipeline holds the steps for one job: load the file, rotate, place the
// crop box, optionally remove the background, crop or split, and write the
// results. Each step works on a shared *model.Job and an Editor bound to
// that job. The BatchProcessor runs one fresh pipeline per input file with
// bounded concurrency (errgroup).
package pipeline
