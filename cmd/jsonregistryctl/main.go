// Package main contains the CLI for the registry, built as a cobra
// command tree: one subcommand per operation, flags bound to a small
// per-command options struct.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jsonregistry"
	"jsonregistry/internal/config"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "jsonregistryctl",
		Short: "Content-addressed JSON object registry",
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to TOML configuration file (required)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(registerCmd(flags))
	rootCmd.AddCommand(batchCmd(flags))
	rootCmd.AddCommand(configCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig(path string) (config.Configuration, error) {
	if path == "" {
		return config.Configuration{}, fmt.Errorf("--config is required")
	}
	return config.LoadFile(path)
}

type registerFlags struct {
	file string
}

func registerCmd(root *rootFlags) *cobra.Command {
	flags := &registerFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a single JSON object and print its identifier",
		Long: `Reads one JSON value from --file (or stdin if omitted), registers it,
and prints its identifier on a single line.

Examples:
  jsonregistryctl register --config registry.toml --file object.json
  echo '{"name":"alice"}' | jsonregistryctl register --config registry.toml`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRegister(root, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Path to a JSON file (default: stdin)")
	return cmd
}

func runRegister(root *rootFlags, flags *registerFlags) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}

	var v any
	if err := decodeOne(flags.file, &v); err != nil {
		return err
	}

	logger, err := newLogger(root.verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, err := jsonregistry.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	id, err := reg.RegisterObject(ctx, v)
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

type batchFlags struct {
	file string
}

func batchCmd(root *rootFlags) *cobra.Command {
	flags := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Register a JSON array of objects and print their identifiers",
		Long: `Reads a JSON array from --file (or stdin if omitted), registers every
element, and prints one identifier per line in the same order as the input
array.

Examples:
  jsonregistryctl batch --config registry.toml --file objects.json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBatch(root, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Path to a JSON file containing an array (default: stdin)")
	return cmd
}

func runBatch(root *rootFlags, flags *batchFlags) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}

	var vs []any
	if err := decodeOne(flags.file, &vs); err != nil {
		return err
	}

	logger, err := newLogger(root.verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	reg, err := jsonregistry.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	ids, err := reg.RegisterBatchObjects(ctx, vs)
	if err != nil {
		return err
	}

	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func configCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration-related subcommands",
	}
	cmd.AddCommand(configValidateCmd(root))
	return cmd
}

func configValidateCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file without connecting to the store",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}
}

// decodeOne reads path (or stdin if empty) as a single JSON document into
// dst, decoding numbers as json.Number so the canonicaliser sees the
// original decimal text rather than a lossily-reparsed float64.
func decodeOne(path string, dst any) error {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %q: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
