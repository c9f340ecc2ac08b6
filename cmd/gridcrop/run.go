package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/gridcrop/internal/config"
	"github.com/nao1215/gridcrop/internal/database"
	"github.com/nao1215/gridcrop/internal/editor"
	applog "github.com/nao1215/gridcrop/internal/log"
	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/notify"
	"github.com/nao1215/gridcrop/internal/pipeline"
	"github.com/nao1215/gridcrop/internal/progress"
	"github.com/nao1215/gridcrop/internal/removal"
	"github.com/nao1215/gridcrop/internal/report"
	"github.com/nao1215/gridcrop/internal/session"
	"github.com/nao1215/gridcrop/internal/transport"
)

// errJobsFailed is returned when at least one input could not be processed.
var errJobsFailed = errors.New("some files could not be processed")

// runEditCmd executes the crop and split commands.
func runEditCmd(cmd *cobra.Command, args []string, mode model.Mode) error {
	// Build config from flags, config file and environment
	cfg, err := buildConfig(cmd, args, mode)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runEdit(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// flagChanged returns a function reporting whether a flag of cmd was set
// on the command line.
func flagChanged(cmd *cobra.Command) func(string) bool {
	return func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
}

// getBoolFlag reads a bool flag from the command or its parent. A missing
// flag reads as false.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getStringFlag reads a string flag from the command or its parent. A
// missing flag reads as def.
func getStringFlag(cmd *cobra.Command, name, def string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return def
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags. Values from the
// configuration file fill in flags that were not given explicitly.
func buildConfig(cmd *cobra.Command, args []string, mode model.Mode) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Mode = mode
	cfg.Inputs = args

	flags := cmd.Flags()
	var err error

	if flags.Lookup(config.FlagRows) != nil {
		if cfg.Grid.Rows, err = flags.GetInt(config.FlagRows); err != nil {
			return nil, err
		}
		if cfg.Grid.Cols, err = flags.GetInt(config.FlagCols); err != nil {
			return nil, err
		}
	}

	if cfg.Rotation, err = flags.GetFloat64(config.FlagRotate); err != nil {
		return nil, err
	}
	box, err := flags.GetString("box")
	if err != nil {
		return nil, err
	}
	if box != "" {
		if cfg.Box, err = config.ParseBox(box); err != nil {
			return nil, err
		}
	}
	if cfg.AutoCropArea, err = flags.GetFloat64(config.FlagCropArea); err != nil {
		return nil, err
	}
	if cfg.RemoveBackground, err = flags.GetBool(config.FlagRemoveBG); err != nil {
		return nil, err
	}

	if cfg.Remover, err = flags.GetString(config.FlagRemover); err != nil {
		return nil, err
	}
	if cfg.RemoverEndpoint, err = flags.GetString(config.FlagEndpoint); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = flags.GetString(config.FlagProxy); err != nil {
		return nil, err
	}
	if cfg.RemoverTimeout, err = flags.GetDuration(config.FlagTimeout); err != nil {
		return nil, err
	}
	if cfg.RateInterval, err = flags.GetDuration(config.FlagRateInterval); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = flags.GetDuration(config.FlagCacheTTL); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = flags.GetFloat64(config.FlagTolerance); err != nil {
		return nil, err
	}
	if cfg.Feather, err = flags.GetFloat64(config.FlagFeather); err != nil {
		return nil, err
	}

	if cfg.MaxPixels, err = flags.GetInt(config.FlagMaxPixels); err != nil {
		return nil, err
	}
	if cfg.Compression, err = flags.GetString(config.FlagCompression); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString(config.FlagOutputDir); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt(config.FlagBatch); err != nil {
		return nil, err
	}
	if cfg.Language, err = flags.GetString(config.FlagLang); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.NoColor = getBoolFlag(cmd, "no-color")
	cfg.Quiet = getBoolFlag(cmd, "quiet")
	cfg.LogFormat = getStringFlag(cmd, config.FlagLogFormat, config.DefaultLogFormat)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Profile, err = flags.GetString("profile"); err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	var file *config.File
	if configPath != "" {
		file, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	profile, err := file.GetProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}
	profile.Apply(cfg, flagChanged(cmd))

	cfg.ApplyEnv(os.Getenv)

	return cfg, nil
}

// runEdit processes every input and writes the report.
func runEdit(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	logger.Info("starting run",
		"inputs", len(cfg.Inputs),
		"mode", cfg.Mode,
		"removeBackground", cfg.RemoveBackground,
		"remover", cfg.Remover,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// The remover is shared by every job so pacing and caching apply to the
	// whole run.
	var remover removal.Service
	if cfg.RemoveBackground {
		var err error
		remover, err = removal.NewService(cfg.Remover, cfg.LocalRemoverOptions(), cfg.RemoteRemoverOptions(), logger)
		if err != nil {
			return fmt.Errorf("failed to create background remover: %w", err)
		}
		if err := checkProxy(ctx, cfg, logger); err != nil {
			return err
		}
	}

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	messages := notify.NewMessages(cfg.Language)
	interactive := len(cfg.Inputs) == 1 && !cfg.Quiet
	write := pipeline.NewWriteStep(cfg.OutputDir,
		pipeline.WithPerInputDir(len(cfg.Inputs) > 1),
		pipeline.WithWriteLogger(logger),
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			ed := newEditor(cfg, remover, messages, stderr, interactive, logger)
			p := pipeline.New(
				pipeline.WithLogger(logger),
				pipeline.WithCleanup(ed.Close),
			)
			p.AddSteps(pipeline.Steps(ed, write, pipeline.WithLoadLogger(logger))...)
			return p
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	jobs := make([]*model.Job, len(cfg.Inputs))
	var mu sync.Mutex
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Inputs, cfg.JobOptions(), func(job *model.Job, index int) {
		mu.Lock()
		defer mu.Unlock()
		jobs[index] = job

		if !cfg.Quiet {
			printJobStatus(stderr, job, index, len(cfg.Inputs))
		}

		if db != nil {
			// The run context may already be cancelled; the record of a
			// cancelled job is still worth keeping.
			if err := db.SaveJob(context.WithoutCancel(ctx), job); err != nil {
				logger.Error("failed to save job", "source", job.Source, "error", err)
			}
		}
	})
	logger.Info("run finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, jobs, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}
	if failed := countFailed(jobs); failed > 0 {
		return fmt.Errorf("%w: %d of %d", errJobsFailed, failed, len(jobs))
	}
	return nil
}

// newEditor builds the editor for one job. Notifications and the progress
// indicator are shown only when a single file is processed; with several
// concurrent jobs their lines would interleave.
func newEditor(cfg *config.Config, remover removal.Service, messages *notify.Messages, stderr io.Writer, interactive bool, logger *slog.Logger) *editor.Editor {
	var noteSink notify.Sink
	var progressSink progress.Sink = progress.NopSink{}
	if interactive {
		noteSink = notify.NewTerminalSink(stderr, !cfg.NoColor)
		progressSink = newTerminalProgress(stderr)
	}

	sess := session.New(
		session.WithLogger(logger),
		session.WithSurfaceFactory(session.NewSurfaceFactory(cfg.SurfaceOptions())),
		session.WithMaxPixels(cfg.MaxPixels),
	)

	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithSession(sess),
		editor.WithProgress(progress.NewController(progressSink, progress.WithLogger(logger))),
		editor.WithNotifier(notify.New(noteSink, notify.WithLogger(logger))),
		editor.WithMessages(messages),
		editor.WithCompression(cfg.PNGCompression()),
		editor.WithEncodeWorkers(max(1, runtime.GOMAXPROCS(0)/cfg.BatchSize)),
	}
	if remover != nil {
		opts = append(opts, editor.WithRemover(remover))
	}
	return editor.New(opts...)
}

// checkProxy verifies the remote remover's SOCKS5 proxy before any job
// starts, so a dead proxy fails the run once instead of once per file.
func checkProxy(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Proxy == "" || !strings.EqualFold(cfg.Remover, removal.KindRemote) {
		return nil
	}

	client, err := transport.NewClient(cfg.Proxy, cfg.RemoverTimeout)
	if err != nil {
		return fmt.Errorf("failed to create proxy client: %w", err)
	}

	status := client.CheckConnection(ctx)
	if err := status.Error(); err != nil {
		return fmt.Errorf("proxy check failed: %w (make sure the proxy is running at %s)", err, cfg.Proxy)
	}

	logger.Info("proxy connection verified", "address", cfg.Proxy, "status", status)
	return nil
}

// printJobStatus prints a one-line result for a finished job.
func printJobStatus(w io.Writer, job *model.Job, index, total int) {
	switch {
	case job.TimedOut:
		fmt.Fprintf(w, "[%d/%d] %s: cancelled\n", index+1, total, job.Source)
	case job.Failed():
		fmt.Fprintf(w, "[%d/%d] %s: failed: %s\n", index+1, total, job.Source, job.ErrorMessage)
	default:
		fmt.Fprintf(w, "[%d/%d] %s: %d image(s) in %s\n", index+1, total, job.Source, job.ResultCount(), job.OutputDir)
	}
}

// countFailed returns the number of jobs that failed or never ran.
func countFailed(jobs []*model.Job) int {
	failed := 0
	for _, job := range jobs {
		if job == nil || job.Failed() || job.TimedOut {
			failed++
		}
	}
	return failed
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, jobs []*model.Job, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		// Reports list local file paths and EXIF details, so keep them
		// owner-only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	_, err := writer.Write(jobs)
	return err
}
