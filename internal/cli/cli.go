package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/proformagrid/internal/app"
)

// Environment variables that provide defaults for the matching flags.
const (
	EnvLogLevel  = "PROFORMAGRID_LOG_LEVEL"
	EnvLogFormat = "PROFORMAGRID_LOG_FORMAT"
	EnvOutput    = "PROFORMAGRID_OUTPUT"
	EnvStore     = "PROFORMAGRID_STORE"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// Flags take precedence over the process environment, which takes precedence
// over the file named by -env-file.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("proformagrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ProformaGrid - A multi-year financial projection engine.

Usage:
  proformagrid [options] [MODEL_PATH...]

Arguments:
  MODEL_PATH
    A model file (.hcl, .yaml, .yml, .json) or a directory containing them.

Environment:
  `+EnvLogLevel+`, `+EnvLogFormat+`, `+EnvOutput+`, `+EnvStore+`
    Defaults for -log-level, -log-format, -output and -store.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model file or directory.")
	mFlag := flagSet.String("m", "", "Path to the model file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	outputFlag := flagSet.String("output", app.OutputJSON, "Output format. Options: 'json', 'yaml' (value matrix) or 'hcl' (canonical model).")
	storeFlag := flagSet.String("store", "", "Snapshot store DSN, e.g. sqlite://snapshots.db or postgres://user@host/db.")
	nameFlag := flagSet.String("snapshot-name", "", "Name of the saved snapshot. Defaults to the model path.")
	validateFlag := flagSet.Bool("validate", false, "Validate the model without generating values.")
	checkFlag := flagSet.Bool("check", false, "Evaluate constraints after generation and fail if any is violated.")
	depsFlag := flagSet.String("deps", "", "Print the same-year dependency tree of the named quantity.")
	envFileFlag := flagSet.String("env-file", "", "Read default settings from this .env file.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	env, err := newEnv(*envFileFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })
	fromEnv := func(flagName, key string, value *string) {
		if set[flagName] {
			return
		}
		if v, ok := env(key); ok {
			*value = v
		}
	}
	fromEnv("log-level", EnvLogLevel, logLevelFlag)
	fromEnv("log-format", EnvLogFormat, logFormatFlag)
	fromEnv("output", EnvOutput, outputFlag)
	fromEnv("store", EnvStore, storeFlag)

	var paths []string
	if *modelFlag != "" {
		paths = append(paths, *modelFlag)
	} else if *mFlag != "" {
		paths = append(paths, *mFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Model paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ModelPaths:   paths,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Output:       *outputFlag,
		StoreDSN:     *storeFlag,
		SnapshotName: *nameFlag,
		Validate:     *validateFlag,
		Check:        *checkFlag,
		Deps:         *depsFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// newEnv returns a lookup over the process environment, falling back to the
// values of envFile when one is given. The process environment is not
// modified.
func newEnv(envFile string) (func(string) (string, bool), error) {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		fileVals = vals
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}, nil
}
