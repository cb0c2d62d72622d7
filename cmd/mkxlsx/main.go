package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darianmavgo/mkxlsx/config"
	"github.com/darianmavgo/mkxlsx/converters"
	_ "github.com/darianmavgo/mkxlsx/converters/all"
	"github.com/darianmavgo/mkxlsx/converters/manifest"
)

type cliOptions struct {
	inputDir   string
	output     string
	encoding   string
	delimiter  string
	extensions []string
	recursive  bool
	configPath string
	manifest   string

	quiet   bool
	verbose bool
	jsonOut bool
	logJSON bool
	color   bool
}

// Output is the summary printed with --json.
type Output struct {
	Success  bool                    `json:"success"`
	Output   string                  `json:"output,omitempty"`
	Sheets   []string                `json:"sheets,omitempty"`
	Files    []converters.FileResult `json:"files,omitempty"`
	Failed   int                     `json:"failed"`
	Error    string                  `json:"error,omitempty"`
	Duration string                  `json:"duration"`
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "mkxlsx -i <input_dir> -o <output.xlsx>",
		Short: "Combine a folder of CSV files into one Excel workbook",
		Long: `mkxlsx reads every delimited text file in a directory and writes them
into a single .xlsx workbook, one worksheet per file. Delimiters are
detected per file unless --delimiter is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, stdout, stderr)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.inputDir, "input-dir", "i", "", "Directory containing CSV files")
	flags.StringVarP(&opts.output, "output", "o", "", "Output Excel path (e.g. combined.xlsx)")
	flags.StringVar(&opts.encoding, "encoding", "", "Input encoding (default utf-8-sig; \"auto\" to detect)")
	flags.StringVar(&opts.delimiter, "delimiter", "", "Delimiter override (e.g. , ; \\t |). If omitted, auto-detect")
	flags.StringSliceVar(&opts.extensions, "ext", nil, "File extensions to include (default .csv)")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "Recurse into subdirectories")
	flags.StringVar(&opts.configPath, "config", "", "HCL configuration file")
	flags.StringVar(&opts.manifest, "manifest", "", "Append a record of this run to a SQLite database")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log per-file details")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print a JSON summary to stdout")
	flags.BoolVar(&opts.logJSON, "log-json", false, "Output logs in JSON format")
	flags.BoolVar(&opts.color, "log-color", false, "Color logs")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
	_ = rootCmd.MarkFlagRequired("input-dir")
	_ = rootCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(newConfigCmd(stdout), newManifestCmd(stdout))
	return rootCmd
}

func newConfigCmd(stdout io.Writer) *cobra.Command {
	var from string

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	exportCmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Write the effective configuration as HCL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if from != "" {
				loaded, err := config.Load(from)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := config.Export(args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Wrote configuration: %s\n", args[0])
			return nil
		},
	}
	exportCmd.Flags().StringVar(&from, "config", "", "Start from this HCL file instead of the defaults")
	configCmd.AddCommand(exportCmd)
	return configCmd
}

func newManifestCmd(stdout io.Writer) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "manifest <db>",
		Short: "List the runs recorded in a manifest database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := manifest.Read(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tSOURCE\tSHEET\tDELIM\tROWS\tSTATUS")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.RunStarted, r.SourcePath, r.Sheet, r.Delimiter, r.Rows, r.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func run(cmd *cobra.Command, opts *cliOptions, stdout, stderr io.Writer) error {
	start := time.Now()
	logger := setupLogging(stderr, opts)

	fail := func(err error) error {
		// fatal errors are reported even in quiet mode
		log.Error().Err(err).Msg("mkxlsx failed")
		if opts.jsonOut {
			emitJSON(stdout, Output{Error: err.Error(), Duration: time.Since(start).String()})
		}
		return err
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return fail(fmt.Errorf("configuration error: %w", err))
	}
	convCfg, err := cfg.Validate()
	if err != nil {
		return fail(fmt.Errorf("configuration error: %w", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := converters.Combine(ctx, opts.inputDir, opts.output, &converters.ImportOptions{
		Recursive:   cfg.Recursive,
		Extensions:  cfg.Extensions,
		Config:      convCfg,
		Placeholder: cfg.Placeholder,
		Logger:      logger,
	})
	if err != nil {
		if errors.Is(err, converters.ErrNoInput) {
			err = fmt.Errorf("no CSV files found in: %s", opts.inputDir)
		}
		return fail(err)
	}

	if opts.manifest != "" {
		if err := manifest.Write(opts.manifest, report); err != nil {
			// the workbook is already in place; the manifest is a side record
			log.Warn().Err(err).Str("manifest", opts.manifest).Msg("Failed to write manifest")
		} else {
			log.Debug().Str("manifest", opts.manifest).Msg("Recorded run")
		}
	}

	if opts.jsonOut {
		emitJSON(stdout, Output{
			Success:  true,
			Output:   report.Output,
			Sheets:   report.Sheets(),
			Files:    report.Files,
			Failed:   report.Failed(),
			Duration: time.Since(start).String(),
		})
	}
	return nil
}

// loadConfig merges the optional config file with flags that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("encoding") {
		cfg.Encoding = opts.encoding
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = opts.delimiter
	}
	if flags.Changed("ext") {
		cfg.Extensions = opts.extensions
	}
	if flags.Changed("recursive") {
		cfg.Recursive = opts.recursive
	}

	opts.inputDir = filepath.Clean(opts.inputDir)
	opts.output = filepath.Clean(opts.output)
	return cfg, nil
}

func emitJSON(w io.Writer, out Output) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON output")
	}
}
