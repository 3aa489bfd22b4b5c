package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"labpulse/internal/config"
	"labpulse/internal/exporter"
	"labpulse/internal/infrastructure"
	"labpulse/internal/services"
	"labpulse/internal/validation"
	"labpulse/pkg/contracts"
	"labpulse/pkg/contracts/domain"
)

// options are the flags shared by every subcommand.
type options struct {
	input    string
	files    []string
	profile  string
	lab      string
	out      string
	format   string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "labpulse",
		Short:         "Invalid and indeterminate rate analysis of diagnostic test exports",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `labpulse reads CSV and XLSX test-run exports, builds one dataset from
them and writes the analysis tables for a profile and lab selection.

Input comes from --input (every .csv and .xlsx in the directory) or from
one or more --file flags. Output files go to --out and are named after the
report and the selection, for example monthly_trend_P1_Lab_A.csv.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.input, "input", "", "input directory (default from config)")
	flags.StringArrayVar(&o.files, "file", nil, "input file, repeatable; overrides --input")
	flags.StringVar(&o.profile, "profile", domain.AllProfiles, "profile id or \"All\"")
	flags.StringVar(&o.lab, "lab", domain.AllLabs, "lab name or \"All Labs\"")
	flags.StringVar(&o.out, "out", "", "output directory (default from config)")
	flags.StringVar(&o.format, "format", string(exporter.FormatCSV), "output format: csv or xlsx")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newProfileCmd(o),
		newLotsCmd(o),
		newTrendCmd(o),
		newWeeklyCmd(o),
		newReportCmd(o),
		newProfilesCmd(o),
		newLabsCmd(o),
	)
	return root
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdout only carries results.
func (o *options) setup(cmd *cobra.Command) error {
	cfg, loadErr := config.Load()
	if loadErr != nil {
		cfg = config.Default()
	}
	cfg.Logging.Level = o.logLevel
	cfg.Analysis.WatchInputs = false
	if o.input != "" {
		cfg.Analysis.InputDir = o.input
	}
	if o.out != "" {
		cfg.Analysis.OutputDir = o.out
	}

	o.cfg = cfg
	o.logger = infrastructure.NewWriterLogger(cmd.ErrOrStderr(), cfg.Logging)
	if loadErr != nil {
		o.logger.Warn("Failed to load config, using defaults", slog.String("error", loadErr.Error()))
	}
	return nil
}

func (o *options) filter() domain.Filter {
	return domain.NewFilter(o.profile, o.lab)
}

// exportFormat accepts the file formats; JSON only exists for the report
// summary and the HTTP API.
func (o *options) exportFormat() (exporter.Format, error) {
	format, err := exporter.ParseFormat(o.format)
	if err != nil {
		return "", err
	}
	if format == exporter.FormatJSON {
		return "", fmt.Errorf("%w: %q", exporter.ErrUnsupportedFormat, o.format)
	}
	return format, nil
}

// loadService checks the locations and builds the dataset from --file or
// the input directory. Invalid --file paths are reported and skipped.
func (o *options) loadService(cmd *cobra.Command) (*services.AnalysisService, error) {
	validator := validation.NewFileValidator(o.logger)
	if err := validator.ValidateOutputDirectory(o.cfg.Analysis.OutputDir); err != nil {
		return nil, err
	}

	var paths []string
	if len(o.files) > 0 {
		valid, errs := validator.FilterInputFiles(o.files)
		for _, err := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", err)
		}
		if len(valid) == 0 {
			return nil, services.ErrNoReadableFiles
		}
		paths = valid
	} else if _, err := validator.ValidateInputDirectory(o.cfg.Analysis.InputDir); err != nil {
		return nil, err
	}

	svc := services.NewAnalysisService(o.cfg.Analysis, o.logger)

	var (
		status services.DatasetStatus
		err    error
	)
	if len(paths) > 0 {
		status, err = svc.LoadFiles(cmd.Context(), paths)
	} else {
		status, err = svc.Load(cmd.Context(), o.cfg.Analysis.InputDir)
	}
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	for _, failed := range status.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", failed.Path, failed.Error)
	}
	o.logger.Info("Dataset loaded",
		slog.Int("records", status.Records),
		slog.Int("dropped", status.Dropped),
		slog.Int("files", status.Files))
	return svc, nil
}
