package config

import (
	"fmt"
	"time"
)

// Flag names a Profile can set. Profile.Apply skips a field when its flag
// was given on the command line.
const (
	FlagRows         = "rows"
	FlagCols         = "cols"
	FlagCropArea     = "crop-area"
	FlagRotate       = "rotate"
	FlagRemoveBG     = "remove-bg"
	FlagRemover      = "remover"
	FlagEndpoint     = "endpoint"
	FlagProxy        = "proxy"
	FlagTimeout      = "timeout"
	FlagRateInterval = "rate-interval"
	FlagCacheTTL     = "cache-ttl"
	FlagTolerance    = "tolerance"
	FlagFeather      = "feather"
	FlagMaxPixels    = "max-pixels"
	FlagCompression  = "compression"
	FlagOutputDir    = "output-dir"
	FlagBatch        = "batch"
	FlagLang         = "lang"
	FlagLogFormat    = "log-format"
)

// Profile is a set of overrides from the configuration file.
// Zero values mean "not set"; RemoveBackground is a pointer so a profile
// can turn it off explicitly.
type Profile struct {
	Rows             int           `yaml:"rows,omitempty"`
	Cols             int           `yaml:"cols,omitempty"`
	AutoCropArea     float64       `yaml:"crop_area,omitempty"`
	Rotate           float64       `yaml:"rotate,omitempty"`
	RemoveBackground *bool         `yaml:"remove_background,omitempty"`
	Remover          string        `yaml:"remover,omitempty"`
	Endpoint         string        `yaml:"endpoint,omitempty"`
	Proxy            string        `yaml:"proxy,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	RateInterval     time.Duration `yaml:"rate_interval,omitempty"`
	CacheTTL         time.Duration `yaml:"cache_ttl,omitempty"`
	Tolerance        float64       `yaml:"tolerance,omitempty"`
	Feather          float64       `yaml:"feather,omitempty"`
	MaxPixels        int           `yaml:"max_pixels,omitempty"`
	Compression      string        `yaml:"compression,omitempty"`
	OutputDir        string        `yaml:"output_dir,omitempty"`
	BatchSize        int           `yaml:"batch,omitempty"`
	Language         string        `yaml:"lang,omitempty"`
	LogFormat        string        `yaml:"log_format,omitempty"`
}

// File represents the structure of the .gridcrop configuration file.
type File struct {
	// Defaults apply to every run.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles are named override sets selected with --profile.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// GetProfile returns Defaults merged with the named profile. An empty name
// returns Defaults alone.
func (f *File) GetProfile(name string) (Profile, error) {
	if f == nil {
		return Profile{}, nil
	}
	if name == "" {
		return f.Defaults, nil
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return f.Defaults.merge(p), nil
}

// merge returns p with every field set in override replaced.
func (p Profile) merge(override Profile) Profile {
	out := p
	if override.Rows != 0 {
		out.Rows = override.Rows
	}
	if override.Cols != 0 {
		out.Cols = override.Cols
	}
	if override.AutoCropArea != 0 {
		out.AutoCropArea = override.AutoCropArea
	}
	if override.Rotate != 0 {
		out.Rotate = override.Rotate
	}
	if override.RemoveBackground != nil {
		out.RemoveBackground = override.RemoveBackground
	}
	if override.Remover != "" {
		out.Remover = override.Remover
	}
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.Proxy != "" {
		out.Proxy = override.Proxy
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	if override.RateInterval != 0 {
		out.RateInterval = override.RateInterval
	}
	if override.CacheTTL != 0 {
		out.CacheTTL = override.CacheTTL
	}
	if override.Tolerance != 0 {
		out.Tolerance = override.Tolerance
	}
	if override.Feather != 0 {
		out.Feather = override.Feather
	}
	if override.MaxPixels != 0 {
		out.MaxPixels = override.MaxPixels
	}
	if override.Compression != "" {
		out.Compression = override.Compression
	}
	if override.OutputDir != "" {
		out.OutputDir = override.OutputDir
	}
	if override.BatchSize != 0 {
		out.BatchSize = override.BatchSize
	}
	if override.Language != "" {
		out.Language = override.Language
	}
	if override.LogFormat != "" {
		out.LogFormat = override.LogFormat
	}
	return out
}

// Apply copies the profile's set fields into cfg. changed reports whether
// a flag was given explicitly; such fields keep the flag's value. A nil
// changed treats every flag as unset.
func (p Profile) Apply(cfg *Config, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	use := func(flag string, set bool) bool { return set && !changed(flag) }

	if use(FlagRows, p.Rows != 0) {
		cfg.Grid.Rows = p.Rows
	}
	if use(FlagCols, p.Cols != 0) {
		cfg.Grid.Cols = p.Cols
	}
	if use(FlagCropArea, p.AutoCropArea != 0) {
		cfg.AutoCropArea = p.AutoCropArea
	}
	if use(FlagRotate, p.Rotate != 0) {
		cfg.Rotation = p.Rotate
	}
	if use(FlagRemoveBG, p.RemoveBackground != nil) {
		cfg.RemoveBackground = *p.RemoveBackground
	}
	if use(FlagRemover, p.Remover != "") {
		cfg.Remover = p.Remover
	}
	if use(FlagEndpoint, p.Endpoint != "") {
		cfg.RemoverEndpoint = p.Endpoint
	}
	if use(FlagProxy, p.Proxy != "") {
		cfg.Proxy = p.Proxy
	}
	if use(FlagTimeout, p.Timeout != 0) {
		cfg.RemoverTimeout = p.Timeout
	}
	if use(FlagRateInterval, p.RateInterval != 0) {
		cfg.RateInterval = p.RateInterval
	}
	if use(FlagCacheTTL, p.CacheTTL != 0) {
		cfg.CacheTTL = p.CacheTTL
	}
	if use(FlagTolerance, p.Tolerance != 0) {
		cfg.Tolerance = p.Tolerance
	}
	if use(FlagFeather, p.Feather != 0) {
		cfg.Feather = p.Feather
	}
	if use(FlagMaxPixels, p.MaxPixels != 0) {
		cfg.MaxPixels = p.MaxPixels
	}
	if use(FlagCompression, p.Compression != "") {
		cfg.Compression = p.Compression
	}
	if use(FlagOutputDir, p.OutputDir != "") {
		cfg.OutputDir = p.OutputDir
	}
	if use(FlagBatch, p.BatchSize != 0) {
		cfg.BatchSize = p.BatchSize
	}
	if use(FlagLang, p.Language != "") {
		cfg.Language = p.Language
	}
	if use(FlagLogFormat, p.LogFormat != "") {
		cfg.LogFormat = p.LogFormat
	}
}
