// Package cli implements the digest command line: batch runs over a
// directory or feed, and inspection commands for segmentation and token
// estimates.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docdigest/internal/config"
	"docdigest/internal/domain/budget"
	"docdigest/internal/observability/logging"
	textutil "docdigest/internal/utils/text"
)

// NewRootCmd returns the digest command tree.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "digest",
		Short:         "Classify and summarize text documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := LoadEnv(envFile); err != nil {
				return err
			}
			logger := logging.NewTextLoggerTo(cmd.ErrOrStderr())
			slog.SetDefault(logger)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(
		newRunCmd(),
		newSegmentCmd(),
		newTokensCmd(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// LoadEnv loads variables from a dotenv file without overriding the ones
// already set. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadDigestConfig reads the digest configuration and logs the fallbacks
// applied while loading it.
func loadDigestConfig(ctx context.Context) (*config.DigestConfig, error) {
	cfg, err := config.LoadDigestConfig()
	if err != nil {
		return nil, err
	}
	logging.LogFallbacks(logging.FromContext(ctx), cfg.Warnings)
	return cfg, nil
}

// loadBudgeter reads the digest configuration and builds its budgeter. A
// non-empty tokenizer overrides DIGEST_TOKENIZER.
func loadBudgeter(ctx context.Context, tokenizer string) (*config.DigestConfig, budget.Budgeter, error) {
	cfg, err := loadDigestConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if tokenizer != "" {
		cfg.Tokenizer = tokenizer
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	b, err := cfg.NewBudgeter()
	if err != nil {
		return nil, nil, err
	}
	return cfg, b, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return textutil.StripBOM(string(data)), nil
}
