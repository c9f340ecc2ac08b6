package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/gridcrop/internal/config"
	"github.com/nao1215/gridcrop/internal/database"
	"github.com/nao1215/gridcrop/internal/model"
)

// defaultHistoryLimit is the number of jobs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command lists jobs recorded in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [job-id]",
		Short: "Show previously processed images",
		Long: `History lists the jobs recorded by crop and split, newest first.

Each row shows the source file, the operation, whether the background was
removed, how many images were written and where.

Examples:
  # Show the last 20 jobs
  gridcrop history

  # Show every job as JSON
  gridcrop history --limit 0 --json

  # Show one job in detail
  gridcrop history 3f1c0d7e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of jobs to list (0 lists all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		record, err := db.GetJob(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		if record == nil {
			return fmt.Errorf("job not found: %s", args[0])
		}
		if jsonOutput {
			return writeJSON(out, record)
		}
		return printJobRecord(out, record)
	}

	records, err := db.ListJobs(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No jobs found in the history database.")
		fmt.Fprintln(out, "\nUse 'gridcrop crop' or 'gridcrop split' to process an image.")
		return nil
	}

	total, err := db.CountJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}
	return printHistoryTable(out, records, total)
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printHistoryTable renders records as a Markdown table.
func printHistoryTable(w io.Writer, records []*database.JobRecord, total int) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.Source,
			operationOf(r),
			r.Status(),
			strconv.Itoa(r.ResultCount),
			humanize.Bytes(uint64(max(0, r.OutputBytes))), //nolint:gosec // clamped to non-negative
			r.ID,
		})
	}

	return markdown.NewMarkdown(w).
		H2(fmt.Sprintf("Job history (%d of %d)", len(records), total)).
		Table(markdown.TableSet{
			Header: []string{"Date", "Source", "Operation", "Status", "Images", "Size", "ID"},
			Rows:   rows,
		}).
		Build()
}

// printJobRecord prints one record in detail.
func printJobRecord(w io.Writer, r *database.JobRecord) error {
	items := []string{
		"Status: " + r.Status(),
		"Started: " + r.StartedAt.Local().Format(time.DateTime),
		"Source: " + r.Source,
		fmt.Sprintf("Format: %s %dx%d", r.Format, r.Width, r.Height),
		"Operation: " + operationOf(r),
		fmt.Sprintf("Background removed: %t", r.BackgroundRemoved),
		fmt.Sprintf("Output: %d image(s), %s", r.ResultCount, humanize.Bytes(uint64(max(0, r.OutputBytes)))), //nolint:gosec // clamped to non-negative
		"Directory: " + r.OutputDir,
		"Duration: " + r.Duration.Round(time.Millisecond).String(),
	}
	if r.Metadata != nil && r.Metadata.Camera() != "" {
		items = append(items, "Camera: "+r.Metadata.Camera())
	}
	if r.Error != "" {
		items = append(items, "Error: "+r.Error)
	}

	return markdown.NewMarkdown(w).
		H2("Job " + r.ID).
		BulletList(items...).
		Build()
}

// operationOf describes what a recorded job produced.
func operationOf(r *database.JobRecord) string {
	if r.Mode == model.ModeSplit {
		return "split " + r.Grid.String()
	}
	return "crop"
}
