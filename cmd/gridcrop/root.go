package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/gridcrop/internal/config"
)

// NewRootCmd creates the root command for gridcrop.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridcrop",
		Short: "Crop images, remove backgrounds and split them into grids",
		Long: `gridcrop crops images, optionally removes their background, and splits the
crop into a grid of equal tiles written as crop_1.png, crop_2.png, ...

Background removal runs offline by default. Use --remover remote with
--endpoint to send images to an inference service instead; the API key is
read from GRIDCROP_REMOVER_API_KEY.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String(config.FlagLogFormat, config.DefaultLogFormat, "Log format: text or json")
	cmd.PersistentFlags().Bool("no-color", false, "Disable coloured notifications")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Hide notifications and progress")

	cmd.AddCommand(NewCropCmd())
	cmd.AddCommand(NewSplitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
