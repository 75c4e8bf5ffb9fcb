// Command kemah searches and inspects the camping corpus from a terminal.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"carikemah/internal/adapters/observability"
	"carikemah/internal/app"
	"carikemah/internal/shared"
	"carikemah/internal/storage/sqlrepo"
)

var (
	jsonOut bool
	noColor bool
	verbose bool
)

// env is what every subcommand works against; built once in PersistentPreRunE.
type env struct {
	cfg     shared.Config
	db      *sql.DB
	repo    *sqlrepo.Repo
	engines *app.EngineLoader
	search  *app.SearchService
}

var rt env

var rootCmd = &cobra.Command{
	Use:           "kemah",
	Short:         "Search camping grounds by what reviewers say about them",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		color.NoColor = color.NoColor || noColor
		rt.cfg = shared.Load()
		level := rt.cfg.LogLevel
		if !verbose {
			level = "warn"
		}
		log.Logger = observability.NewConsoleLogger(os.Stderr, "kemah", level)

		ctx := cmd.Context()
		repo, db, err := shared.OpenStore(ctx, rt.cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		rt.db, rt.repo = db, repo
		rt.engines = app.NewEngineLoader(rt.cfg.EngineOptions(), repo)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt.search != nil {
			rt.search.Drain()
		}
		if rt.db != nil {
			_ = rt.db.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of a table")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log loading details to stderr")

	rootCmd.AddCommand(searchCmd(), analyzeCmd(), scorecardsCmd(), historyCmd())
}

// loadEngine builds the search engine and the search service on top of it.
func loadEngine(ctx context.Context) (*app.SearchService, error) {
	eng, err := rt.engines.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if !eng.Ready() {
		warnf("search engine not ready: check MODEL_PATH (%s) and run the ingestor", rt.cfg.ModelPath)
	}
	rt.search = app.NewSearchService(rt.engines, app.NewPlaceService(rt.repo, nil, 0), rt.repo, nil, rt.cfg.SearchOptions())
	return rt.search, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errorf("%v", err)
		os.Exit(1)
	}
}
