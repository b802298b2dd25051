package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docdigest/internal/infra/backend"
	"docdigest/internal/infra/db"
	"docdigest/internal/infra/sink"
	"docdigest/internal/infra/source"
	"docdigest/internal/observability/logging"
)

type runOptions struct {
	include     []string
	exclude     []string
	feedURL     string
	output      string
	databaseURL string
	progress    bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [DIR]",
		Short: "Classify and summarize every document under a directory",
		Long: `Read documents from a directory (and optionally a remote feed), classify
and summarize each one, and write one CSV row per document.

Examples:
  digest run ./articles
  digest run ./articles --include '**/*.txt' --exclude 'drafts/**'
  digest run --feed-url https://example.com/feed.xml --output feed.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			} else if opts.feedURL == "" {
				dir = "."
			}
			return runDigest(cmd, dir, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.include, "include", nil, "glob of plain text files to read (default: text, HTML and feed files)")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "glob of files to ignore")
	f.StringVar(&opts.feedURL, "feed-url", "", "RSS or Atom feed to digest in addition to DIR")
	f.StringVarP(&opts.output, "output", "o", "digest.csv", "CSV file to write")
	f.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "also upsert records into this Postgres database")
	f.BoolVar(&opts.progress, "progress", true, "show a progress bar on stderr")
	return cmd
}

func (o *runOptions) source(dir string) (source.Source, error) {
	var sources source.Multi
	if dir != "" {
		rules := source.DefaultRules()
		if len(o.include) > 0 {
			rules = source.TextRules(o.include...)
		}
		d, err := source.NewDir(dir, rules, o.exclude)
		if err != nil {
			return nil, err
		}
		sources = append(sources, d)
	}
	if o.feedURL != "" {
		sources = append(sources, source.NewFeedURL(o.feedURL, nil))
	}
	return sources, nil
}

func runDigest(cmd *cobra.Command, dir string, opts *runOptions) error {
	runID := uuid.NewString()
	ctx := logging.WithRunID(cmd.Context(), runID)
	logger := logging.FromContext(ctx)

	src, err := opts.source(dir)
	if err != nil {
		return err
	}
	cfg, err := loadDigestConfig(ctx)
	if err != nil {
		return err
	}
	svc, _, err := backend.NewService(logger, cfg)
	if err != nil {
		return err
	}

	sinks, database, err := opts.sinks(ctx, runID)
	if err != nil {
		return err
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
	}

	docs, err := src.Documents(ctx)
	if err != nil {
		_ = sinks.Close()
		return fmt.Errorf("read documents: %w", err)
	}
	logger.Info("documents loaded", slog.Int("documents", len(docs)))

	if opts.progress {
		svc.Progress = newBarProgress(cmd.ErrOrStderr())
	}
	records, stats, batchErr := svc.ProcessAll(ctx, docs)

	writeErr := sinks.Write(context.WithoutCancel(ctx), records)
	closeErr := sinks.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%d documents: %d processed, %d skipped, %d degraded -> %s\n",
		stats.Documents, stats.Processed, stats.Skipped, stats.Degraded, opts.output)
	return errors.Join(batchErr, writeErr, closeErr)
}

// sinks opens the CSV output and, when a database URL is set, the Postgres
// sink. The returned database is nil when Postgres is not used.
func (o *runOptions) sinks(ctx context.Context, runID string) (sink.Multi, *sql.DB, error) {
	csvSink, err := sink.CreateCSV(o.output)
	if err != nil {
		return nil, nil, err
	}
	if o.databaseURL == "" {
		return sink.Multi{csvSink}, nil, nil
	}

	connCfg, warnings := db.LoadConnectionConfig()
	logging.LogFallbacks(logging.FromContext(ctx), warnings)
	database, err := db.Open(ctx, o.databaseURL, connCfg)
	if err == nil {
		err = db.MigrateUp(ctx, database)
		if err != nil {
			_ = database.Close()
		}
	}
	if err != nil {
		_ = csvSink.Close()
		return nil, nil, err
	}
	return sink.Multi{csvSink, sink.NewPostgres(database, runID)}, database, nil
}
