package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"carikemah/internal/app"
)

func searchCmd() *cobra.Command {
	var (
		topK   int
		sortBy string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank places for a natural-language query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := svc.Search(cmd.Context(), strings.Join(args, " "), topK, sortBy)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, resp)
			}
			renderSearch(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top", "k", 0, "number of places to return (default from SEARCH_TOP_K)")
	cmd.Flags().StringVar(&sortBy, "sort", app.SortScore, "result order: score or rating")
	return cmd
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <query>",
		Short: "Show how a query is interpreted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			a := svc.Analyze(strings.Join(args, " "))
			if jsonOut {
				return printJSON(cmd, a)
			}
			renderAnalysis(cmd.OutOrStdout(), a)
			return nil
		},
	}
}

func scorecardsCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "scorecards",
		Short: "Build aspect scorecards for every place",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadEngine(cmd.Context()); err != nil {
				return err
			}
			svc := app.NewScorecardService(rt.engines, rt.repo, nil, 0, rt.cfg.Workers)
			all, err := svc.All(cmd.Context())
			if err != nil {
				return err
			}
			if out != "" {
				b, err := json.MarshalIndent(all, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, b, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				successf("%d scorecards written to %s", len(all), out)
				return nil
			}
			if jsonOut {
				return printJSON(cmd, all)
			}
			renderScorecards(cmd.OutOrStdout(), all)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write all scorecards to this JSON file")
	return cmd
}

func historyCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := rt.repo.ListSearches(cmd.Context(), max(n, 1))
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, logs)
			}
			renderHistory(cmd.OutOrStdout(), logs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of searches to show")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
