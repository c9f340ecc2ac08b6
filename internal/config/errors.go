package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInput is returned when no input file is given.
	ErrNoInput = errors.New("no input specified: provide at least one image file")

	// ErrInvalidTimeout is returned when the remover timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid remover timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRateInterval is returned when the rate interval is negative.
	ErrInvalidRateInterval = errors.New("invalid rate interval: must be non-negative")

	// ErrInvalidCacheTTL is returned when the cache TTL is negative.
	ErrInvalidCacheTTL = errors.New("invalid cache ttl: must be non-negative")

	// ErrInvalidAutoCropArea is returned when the crop area is outside (0, 1].
	ErrInvalidAutoCropArea = errors.New("invalid crop area: must be greater than 0 and at most 1")

	// ErrInvalidRemover is returned for a remover other than local or remote.
	ErrInvalidRemover = errors.New("invalid remover: must be local or remote")

	// ErrMissingEndpoint is returned when the remote remover is selected
	// without an endpoint.
	ErrMissingEndpoint = errors.New("remote remover needs --endpoint")

	// ErrInvalidMaxPixels is returned when the pixel limit is not positive.
	ErrInvalidMaxPixels = errors.New("invalid max pixels: must be positive")

	// ErrInvalidCompression is returned for an unknown PNG compression name.
	ErrInvalidCompression = errors.New("invalid compression: must be default, none, fast or best")

	// ErrInvalidTolerance is returned when the local remover tolerance is not
	// positive or the feather is negative.
	ErrInvalidTolerance = errors.New("invalid local remover settings: tolerance must be positive and feather non-negative")

	// ErrUnknownProfile is returned when the requested profile is not in the
	// configuration file.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrConfigNotFound is returned when the configuration file does not
	// exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
