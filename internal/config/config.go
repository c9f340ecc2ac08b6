package config

import (
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/gridcrop/internal/cropsurface"
	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/raster"
	"github.com/nao1215/gridcrop/internal/removal"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "gridcrop"

	// DefaultOutputDir is where result files are written.
	DefaultOutputDir = "output"

	// DefaultRows and DefaultCols are the split grid when none is given.
	DefaultRows = 2
	DefaultCols = 2

	// DefaultBatchSize is the number of files processed at once.
	DefaultBatchSize = 4

	// DefaultRemover selects the offline remover, which needs no account.
	DefaultRemover = removal.KindLocal

	// DefaultRemoverTimeout bounds one remote inference request. Cold model
	// starts on hosted endpoints can take well over a minute.
	DefaultRemoverTimeout = 120 * time.Second

	// DefaultRateInterval is the minimum spacing of remote requests.
	DefaultRateInterval = 1 * time.Second

	// DefaultCacheTTL is how long remote results are reused.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultLanguage is the notification language.
	DefaultLanguage = "en"

	// DefaultCompression is the PNG compression name.
	DefaultCompression = "default"

	// DefaultLogFormat is the log output format.
	DefaultLogFormat = "text"

	// EnvRemoverAPIKey supplies Config.RemoverAPIKey.
	EnvRemoverAPIKey = "GRIDCROP_REMOVER_API_KEY"
)

// Config holds every option of a gridcrop run. It is built from defaults,
// the config file and flags, then passed down explicitly.
type Config struct {
	// Inputs are the image files to process.
	Inputs []string

	// Mode selects a single crop or a grid split.
	Mode model.Mode

	// Grid is the split grid. It is validated only in split mode.
	Grid model.GridSpec

	// Rotation is applied after loading, in degrees clockwise.
	Rotation float64

	// Box is an explicit crop box. Empty keeps the default centered box.
	Box image.Rectangle

	// AutoCropArea is the fraction of each dimension the default box covers.
	AutoCropArea float64

	// RemoveBackground runs the remover before producing output.
	RemoveBackground bool

	// Remover is "local" or "remote".
	Remover string

	// RemoverEndpoint is the URL of the remote inference endpoint.
	RemoverEndpoint string

	// RemoverAPIKey is sent as a bearer token to the remote endpoint.
	RemoverAPIKey string

	// Proxy is an optional SOCKS5 host:port for remote calls.
	Proxy string

	// RemoverTimeout bounds each remote request.
	RemoverTimeout time.Duration

	// RateInterval is the minimum spacing of remote requests. Zero disables
	// pacing.
	RateInterval time.Duration

	// CacheTTL keeps remote results keyed by input hash. Zero disables the
	// cache.
	CacheTTL time.Duration

	// Tolerance and Feather tune the local remover.
	Tolerance float64
	Feather   float64

	// MaxPixels rejects larger inputs before decoding.
	MaxPixels int

	// Compression is the PNG compression name: default, none, fast or best.
	Compression string

	// OutputDir is where result files are written. Each input gets its own
	// subdirectory when more than one file is processed.
	OutputDir string

	// BatchSize is the number of files processed concurrently.
	BatchSize int

	// Language selects the notification catalog ("en" or "th").
	Language string

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// NoColor disables coloured notifications.
	NoColor bool

	// Quiet hides notifications and the progress line.
	Quiet bool

	// JSONReport and MarkdownReport select the summary format. The default
	// is plain text. They are mutually exclusive.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile receives the summary instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit config file.
	ConfigFilePath string

	// Profile names the config file profile to apply.
	Profile string

	// DBDir holds the history database. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB records jobs in the history database.
	SaveToDB bool
}

// NewConfig returns a Config filled with defaults.
func NewConfig() *Config {
	return &Config{
		Mode:           model.ModeCrop,
		Grid:           model.GridSpec{Rows: DefaultRows, Cols: DefaultCols},
		AutoCropArea:   cropsurface.DefaultAutoCropArea,
		Remover:        DefaultRemover,
		RemoverTimeout: DefaultRemoverTimeout,
		RateInterval:   DefaultRateInterval,
		CacheTTL:       DefaultCacheTTL,
		Tolerance:      removal.DefaultTolerance,
		Feather:        removal.DefaultFeather,
		MaxPixels:      raster.DefaultMaxPixels,
		Compression:    DefaultCompression,
		OutputDir:      DefaultOutputDir,
		BatchSize:      DefaultBatchSize,
		Language:       DefaultLanguage,
		LogFormat:      DefaultLogFormat,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/gridcrop.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/gridcrop.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the cache directory, e.g. ~/.cache/gridcrop.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ApplyEnv reads settings from the environment. getenv is usually
// os.Getenv. A key already set by a flag wins.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.RemoverAPIKey == "" {
		c.RemoverAPIKey = getenv(EnvRemoverAPIKey)
	}
}

// Validate returns the first rule the configuration breaks.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	if c.Mode == model.ModeSplit {
		if err := c.Grid.Validate(); err != nil {
			return err
		}
	}
	if c.AutoCropArea <= 0 || c.AutoCropArea > 1 {
		return ErrInvalidAutoCropArea
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxPixels <= 0 {
		return ErrInvalidMaxPixels
	}
	if _, err := ParseCompression(c.Compression); err != nil {
		return err
	}

	switch strings.ToLower(c.Remover) {
	case removal.KindLocal:
		if c.Tolerance <= 0 || c.Feather < 0 {
			return ErrInvalidTolerance
		}
	case removal.KindRemote:
		if c.RemoveBackground && c.RemoverEndpoint == "" {
			return ErrMissingEndpoint
		}
		if c.RemoverTimeout <= 0 {
			return ErrInvalidTimeout
		}
		if c.RateInterval < 0 {
			return ErrInvalidRateInterval
		}
		if c.CacheTTL < 0 {
			return ErrInvalidCacheTTL
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidRemover, c.Remover)
	}
	return nil
}

// JobOptions returns the per-file edits described by the configuration.
func (c *Config) JobOptions() model.JobOptions {
	return model.JobOptions{
		Mode:             c.Mode,
		Grid:             c.Grid,
		Rotation:         c.Rotation,
		Box:              c.Box,
		RemoveBackground: c.RemoveBackground,
	}
}

// SurfaceOptions returns crop surface options with the configured crop
// area.
func (c *Config) SurfaceOptions() cropsurface.Options {
	opts := cropsurface.DefaultOptions()
	opts.AutoCropArea = c.AutoCropArea
	return opts
}

// LocalRemoverOptions returns the offline remover settings.
func (c *Config) LocalRemoverOptions() removal.LocalOptions {
	return removal.LocalOptions{
		Tolerance: c.Tolerance,
		Feather:   c.Feather,
		MaxPixels: c.MaxPixels,
	}
}

// RemoteRemoverOptions returns the remote remover settings.
func (c *Config) RemoteRemoverOptions() removal.RemoteOptions {
	return removal.RemoteOptions{
		Endpoint:     c.RemoverEndpoint,
		APIKey:       c.RemoverAPIKey,
		Proxy:        c.Proxy,
		Timeout:      c.RemoverTimeout,
		RateInterval: c.RateInterval,
		CacheTTL:     c.CacheTTL,
	}
}

// PNGCompression returns the configured compression level. An invalid name
// yields png.DefaultCompression; Validate reports it.
func (c *Config) PNGCompression() png.CompressionLevel {
	level, err := ParseCompression(c.Compression)
	if err != nil {
		return png.DefaultCompression
	}
	return level
}

// ParseCompression maps a compression name to a PNG level.
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("%w: got %q", ErrInvalidCompression, name)
	}
}

// ParseBox parses "x,y,w,h" into a rectangle.
func ParseBox(s string) (image.Rectangle, error) {
	var x, y, w, h int
	if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d,%d", &x, &y, &w, &h); err != nil {
		return image.Rectangle{}, fmt.Errorf("invalid box %q: expected x,y,w,h: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid box %q: width and height must be positive", s)
	}
	return image.Rect(x, y, x+w, y+h), nil
}
