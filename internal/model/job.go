package model

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// Mode selects what a job produces from the cropped raster.
type Mode string

const (
	// ModeCrop produces a single image: the crop region itself.
	ModeCrop Mode = "crop"

	// ModeSplit produces rows*cols images cut from the crop region.
	ModeSplit Mode = "split"
)

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// JobOptions carries the edits requested for one input file.
type JobOptions struct {
	// Mode selects crop or split output.
	Mode Mode `json:"mode"`

	// Grid is used when Mode is ModeSplit.
	Grid GridSpec `json:"grid"`

	// Rotation is applied to the crop surface after loading, in degrees.
	// Positive values rotate clockwise.
	Rotation float64 `json:"rotation"`

	// Box is an explicit crop box in canvas coordinates. An empty rectangle
	// keeps the default centered box.
	Box image.Rectangle `json:"box"`

	// RemoveBackground runs the background remover before producing output.
	RemoveBackground bool `json:"remove_background"`
}

// Job is the unit of work for one input file.
// It accumulates everything the pipeline learns and produces, and is the
// value written to reports and to the history database.
type Job struct {
	// ID uniquely identifies the job in the history database.
	ID string `json:"id"`

	// Source is the input file path as given on the command line.
	Source string `json:"source"`

	// MIMEType is the declared type of the input.
	MIMEType string `json:"mime_type"`

	// SourceHash is the hex BLAKE2b-256 digest of the input bytes.
	SourceHash string `json:"source_hash"`

	// Data holds the raw input bytes while the job runs.
	Data []byte `json:"-"`

	// Options are the requested edits.
	Options JobOptions `json:"options"`

	// Format is the decoder name reported for the input (png, jpeg, ...).
	Format string `json:"format"`

	// Width and Height are the decoded source dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Metadata is the EXIF summary of the input, if any was found.
	Metadata *ImageMetadata `json:"metadata,omitempty"`

	// BackgroundRemoved is true once the remover result replaced the source.
	BackgroundRemoved bool `json:"background_removed"`

	// Results is the most recent output of the crop or split step.
	Results *ResultSet `json:"results,omitempty"`

	// OutputDir is where WriteStep stores result files.
	OutputDir string `json:"output_dir"`

	// Written lists the paths created by WriteStep.
	Written []string `json:"written,omitempty"`

	// PerformedSteps records the names of steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the last step error. ErrorMessage mirrors it for JSON output.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut is set when the job was cancelled before all steps ran.
	TimedOut bool `json:"timed_out"`

	// StartedAt is when the job was created.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time spent in the pipeline.
	Duration time.Duration `json:"duration"`
}

// NewJob creates a job for the given source path with a fresh ID.
func NewJob(source string, opts JobOptions) *Job {
	return &Job{
		ID:             uuid.NewString(),
		Source:         source,
		Options:        opts,
		PerformedSteps: make([]string, 0),
		StartedAt:      time.Now(),
	}
}

// Failed reports whether any step recorded an error.
func (j *Job) Failed() bool {
	return j.Error != nil || j.ErrorMessage != ""
}

// ResultCount returns the number of images in the current result set.
func (j *Job) ResultCount() int {
	return j.Results.Len()
}
