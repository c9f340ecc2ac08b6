package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/gridcrop/internal/config"
	"github.com/nao1215/gridcrop/internal/model"
)

// NewCropCmd creates the crop command.
func NewCropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop [image...]",
		Short: "Crop images to a single output each",
		Long: `Crop loads each image, applies the optional rotation, crop box and
background removal, and writes the crop region as crop_1.png.

Without --box the crop box covers the centered --crop-area fraction of each
side of the image.

Examples:
  # Crop the centered 80% of a photo
  gridcrop crop photo.jpg

  # Crop an explicit region after rotating 90 degrees
  gridcrop crop --rotate 90 --box 10,10,400,300 photo.jpg

  # Remove the background of several files at once
  gridcrop crop --remove-bg --batch 8 *.png`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditCmd(cmd, args, model.ModeCrop)
		},
	}
	addEditFlags(cmd)
	return cmd
}

// NewSplitCmd creates the split command.
func NewSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [image...]",
		Short: "Split the crop of each image into a grid of tiles",
		Long: `Split crops each image like the crop command, then cuts the crop region
into rows x cols equal tiles named crop_1.png ... crop_N.png in row-major
order. Remainder pixels at the right and bottom edges are dropped.

Examples:
  # Split into a 3x3 grid for a profile wall
  gridcrop split --rows 3 --cols 3 photo.jpg

  # Use a named profile from .gridcrop
  gridcrop split --profile instagram photo.jpg

  # Write a JSON report to a file
  gridcrop split --json --report out/report.json photo.jpg`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditCmd(cmd, args, model.ModeSplit)
		},
	}
	addEditFlags(cmd)
	cmd.Flags().Int(config.FlagRows, config.DefaultRows, "Number of grid rows")
	cmd.Flags().Int(config.FlagCols, config.DefaultCols, "Number of grid columns")
	return cmd
}

// addEditFlags registers the flags shared by crop and split.
func addEditFlags(cmd *cobra.Command) {
	defaults := config.NewConfig()

	// Edit flags
	cmd.Flags().Float64(config.FlagRotate, 0,
		"Rotate the image clockwise by this many degrees before cropping")
	cmd.Flags().String("box", "",
		"Explicit crop box as x,y,width,height in image pixels")
	cmd.Flags().Float64(config.FlagCropArea, defaults.AutoCropArea,
		"Fraction of each side covered by the default crop box (0 < area <= 1)")
	cmd.Flags().Bool(config.FlagRemoveBG, false,
		"Remove the background before producing output")

	// Remover flags
	cmd.Flags().String(config.FlagRemover, defaults.Remover,
		"Background remover: local or remote")
	cmd.Flags().String(config.FlagEndpoint, "",
		"Remote remover endpoint URL")
	cmd.Flags().String(config.FlagProxy, "",
		"SOCKS5 proxy for the remote remover (host:port)")
	cmd.Flags().DurationP(config.FlagTimeout, "t", defaults.RemoverTimeout,
		"Timeout for each remote removal request")
	cmd.Flags().Duration(config.FlagRateInterval, defaults.RateInterval,
		"Minimum time between remote removal requests")
	cmd.Flags().Duration(config.FlagCacheTTL, defaults.CacheTTL,
		"How long remote results are reused for identical input")
	cmd.Flags().Float64(config.FlagTolerance, defaults.Tolerance,
		"Colour distance the local remover treats as background")
	cmd.Flags().Float64(config.FlagFeather, defaults.Feather,
		"Edge softening radius of the local remover in pixels")

	// Output flags
	cmd.Flags().Int(config.FlagMaxPixels, defaults.MaxPixels,
		"Reject images with more pixels than this")
	cmd.Flags().String(config.FlagCompression, defaults.Compression,
		"PNG compression: default, none, fast or best")
	cmd.Flags().StringP(config.FlagOutputDir, "d", defaults.OutputDir,
		"Directory result images are written to")
	cmd.Flags().IntP(config.FlagBatch, "b", defaults.BatchSize,
		"Number of files processed concurrently")
	cmd.Flags().StringP(config.FlagLang, "l", defaults.Language,
		"Notification language: en or th")
	cmd.Flags().Bool("no-history", false,
		"Do not record jobs in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .gridcrop in current or home directory)")
	cmd.Flags().StringP("profile", "p", "",
		"Named profile from the configuration file")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "o", "",
		"Write report to specified file path (creates directories if needed)")
}
