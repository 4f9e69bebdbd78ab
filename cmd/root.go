package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warehouse-sim/whsim/sim"
	"github.com/warehouse-sim/whsim/sim/output"
	"github.com/warehouse-sim/whsim/sim/refdata"
)

// Environment variables that override the default directories. They may be
// set in a .env file in the working directory.
const (
	dataDirEnv = "WHSIM_DATA_DIR"
	outDirEnv  = "WHSIM_OUT_DIR"
)

// Sink kinds accepted by --sink.
const (
	sinkCSV    = "csv"
	sinkSQLite = "sqlite"
	sinkBoth   = "both"
)

var (
	// CLI flags
	configPath  string // YAML run configuration
	dataDir     string // reference CSV directory
	outDir      string // output directory
	seed        int64  // overrides the config seed when set
	maxDate     string // drop dates, shipments and orders from this date on
	sinkKind    string // csv, sqlite or both
	sqlitePath  string // SQLite database file
	metricsFile string // Prometheus textfile export
	logLevel    string // Log verbosity level
)

// runOptions is the resolved form of the run flags.
type runOptions struct {
	ConfigPath  string
	DataDir     string
	OutDir      string
	Seed        *int64
	MaxDate     time.Time
	Sink        string
	SQLitePath  string
	MetricsFile string
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "whsim",
	Short: "Discrete-event simulator for warehouse order fulfillment",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logrus.Fatalf("Failed to read .env: %v", err)
		}
	},
}

// runCmd executes the simulation and writes its result to the selected sinks
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the warehouse simulation",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveRunOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Starting simulation: data=%s out=%s sink=%s", opts.DataDir, opts.OutDir, opts.Sink)

		startTime := time.Now()
		res, err := runSimulation(cmd.Context(), opts)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Run %s: %d on time, %d late, %d impossible, %d awaiting restock, service rate %.3f",
			res.RunID, res.OnTime, res.Late, res.Impossible, len(res.WaitList), res.ServiceRate)
		if res.Summary != nil && res.Summary.TotalFetchTasks > 0 {
			logrus.Infof("%d fetch trips: mean %.1fs, p95 %.1fs, max %.1fs", res.Summary.TotalFetchTasks,
				res.Summary.MeanTaskSeconds, res.Summary.P95TaskSeconds, res.Summary.MaxTaskSeconds)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
	},
}

// validateCmd loads the reference data and run configuration without running
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the reference data and run configuration",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveRunOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		ds, err := validateInputs(opts)
		if err != nil {
			logrus.Fatalf("Validation failed: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d days, %d cells, %d items, %d shipments, %d orders\n",
			opts.DataDir, len(ds.Ref.Calendar), len(ds.Ref.Cells), len(ds.Ref.Items),
			len(ds.Ref.Shipments), len(ds.Ref.Orders))
	},
}

// configCmd prints the effective run configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective run configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadRunConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}
		data, err := marshalRunConfig(cfg)
		if err != nil {
			logrus.Fatalf("Failed to render run config: %v", err)
		}
		_, _ = cmd.OutOrStdout().Write(data)
	},
}

// resolveRunOptions applies environment defaults to the flags.
func resolveRunOptions(cmd *cobra.Command) (runOptions, error) {
	opts := runOptions{
		ConfigPath:  configPath,
		DataDir:     firstNonEmpty(dataDir, os.Getenv(dataDirEnv), "data"),
		OutDir:      firstNonEmpty(outDir, os.Getenv(outDirEnv), "out"),
		Sink:        sinkKind,
		SQLitePath:  sqlitePath,
		MetricsFile: metricsFile,
	}
	if cmd.Flags().Changed("seed") {
		s := seed
		opts.Seed = &s
	}
	if maxDate != "" {
		d, err := time.Parse(time.DateOnly, maxDate)
		if err != nil {
			return runOptions{}, fmt.Errorf("--max-date %q: want YYYY-MM-DD", maxDate)
		}
		opts.MaxDate = d
	}
	if opts.SQLitePath == "" {
		opts.SQLitePath = filepath.Join(opts.OutDir, "whsim.db")
	}
	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// validateInputs loads the run configuration and the reference data and
// checks that a simulator can be built from them.
func validateInputs(opts runOptions) (*refdata.Dataset, error) {
	cfg, err := loadRunConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	ds, err := refdata.Load(opts.DataDir, refdata.Options{MaxDate: opts.MaxDate})
	if err != nil {
		return nil, err
	}
	if _, err := sim.NewSimulator(ds.Ref, cfg); err != nil {
		return nil, err
	}
	return ds, nil
}

// runSimulation loads the inputs, runs one simulation and hands the result
// to the sinks selected by opts.
func runSimulation(ctx context.Context, opts runOptions) (*sim.Result, error) {
	cfg, err := loadRunConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Seed != nil {
		cfg.Seed = *opts.Seed
	}
	ds, err := refdata.Load(opts.DataDir, refdata.Options{MaxDate: opts.MaxDate})
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded %d orders and %d shipments over %d days", len(ds.Ref.Orders), len(ds.Ref.Shipments), len(ds.Ref.Calendar))

	s, err := sim.NewSimulator(ds.Ref, cfg)
	if err != nil {
		return nil, err
	}
	res, err := s.Run()
	if err != nil {
		return nil, err
	}

	sink, closeSinks, err := buildSink(opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := closeSinks(); err != nil {
			logrus.Warnf("Closing sinks: %v", err)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := sink.WriteResult(ctx, res); err != nil {
		return nil, fmt.Errorf("writing result: %w", err)
	}
	return res, nil
}

// buildSink returns the sinks selected by opts and a function releasing them.
func buildSink(opts runOptions) (sim.Sink, func() error, error) {
	var sinks output.MultiSink
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	switch opts.Sink {
	case sinkCSV, sinkSQLite, sinkBoth:
	default:
		return nil, nil, fmt.Errorf("--sink %q: want %s, %s or %s", opts.Sink, sinkCSV, sinkSQLite, sinkBoth)
	}
	if opts.Sink == sinkCSV || opts.Sink == sinkBoth {
		sinks = append(sinks, output.NewCSVSink(opts.OutDir))
	}
	if opts.Sink == sinkSQLite || opts.Sink == sinkBoth {
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := output.OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, db)
		closers = append(closers, db.Close)
	}
	if opts.MetricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.MetricsFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating metrics directory: %w", err)
		}
		sinks = append(sinks, output.NewMetricsSink(opts.MetricsFile))
	}
	return sinks, closeAll, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML run configuration (defaults when empty)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for the run, overriding the configuration")

	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVar(&dataDir, "data", "", "Reference CSV directory (default $"+dataDirEnv+" or ./data)")
		c.Flags().StringVar(&maxDate, "max-date", "", "Drop dates, shipments and orders from this date on (YYYY-MM-DD)")
	}
	runCmd.Flags().StringVar(&outDir, "out", "", "Output directory (default $"+outDirEnv+" or ./out)")
	runCmd.Flags().StringVar(&sinkKind, "sink", sinkCSV, "Result sink: csv, sqlite or both")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file (default <out>/whsim.db)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
}
