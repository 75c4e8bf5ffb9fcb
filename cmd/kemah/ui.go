package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"carikemah/internal/app"
	"carikemah/internal/domain"
	"carikemah/internal/query"
	"carikemah/internal/scorecard"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func successf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, green("✓ "+fmt.Sprintf(format, args...)))
}

func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, yellow("⚠ "+fmt.Sprintf(format, args...)))
}

func errorf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, red("✗ "+fmt.Sprintf(format, args...)))
}

// scoreColor grades a 0..1 relevance score.
func scoreColor(s float64) string {
	txt := fmt.Sprintf("%.3f", s)
	switch {
	case s >= 0.6:
		return green(txt)
	case s >= 0.3:
		return yellow(txt)
	default:
		return txt
	}
}

func rupiah(n int64) string {
	if n <= 0 {
		return "-"
	}
	s := fmt.Sprint(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "Rp" + b.String()
}

func renderSearch(w io.Writer, resp app.SearchResponse) {
	if !resp.Ready {
		fmt.Fprintln(w, red("engine not ready, no results"))
		return
	}
	header := fmt.Sprintf("%q", resp.Query)
	if resp.Intent != query.IntentNone {
		header += " intent=" + resp.Intent.String()
	}
	if resp.Region != "" {
		header += " region=" + resp.Region
	}
	fmt.Fprintln(w, bold(header))
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, faint("no matching places"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLACE\tLOCATION\tRATING\tSCORE\tFROM")
	for i, h := range resp.Results {
		name := h.Place
		if h.NameMatch {
			name += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\t%s\n", i+1, name, h.Location, h.Rating, scoreColor(h.Score), rupiah(h.BasePrice))
	}
	_ = tw.Flush()
	for i, h := range resp.Results {
		if h.Snippet != "" {
			fmt.Fprintf(w, "%s %s\n", faint(fmt.Sprintf("[%d]", i+1)), h.Snippet)
		}
	}
}

func renderAnalysis(w io.Writer, a query.Analysis) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "raw\t%s\n", a.Raw)
	fmt.Fprintf(tw, "intent\t%s\n", a.Intent)
	if a.Region.Active() {
		fmt.Fprintf(tw, "region\t%s (%s)\n", a.Region.Code, strings.Join(a.Region.Terms, ", "))
	} else {
		fmt.Fprintf(tw, "region\t-\n")
	}
	fmt.Fprintf(tw, "remainder\t%s\n", a.Remainder)
	fmt.Fprintf(tw, "tokens\t%s\n", strings.Join(a.Tokens, " "))
	_ = tw.Flush()
}

func renderScorecards(w io.Writer, all map[string]scorecard.Scorecard) {
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		sc := all[n]
		fmt.Fprintf(w, "%s  %s\n", bold(sc.Place), faint(fmt.Sprintf("%d reviews, overall %.1f", sc.TotalReviews, sc.Overall())))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, a := range sc.Aspects {
			score := "-"
			if a.Mentions > 0 {
				score = fmt.Sprintf("%.1f", a.Score)
			}
			fmt.Fprintf(tw, "  %s %s\t%s\t%d+/%d-\n", a.Icon, a.Label, score, a.Positive, a.Negative)
		}
		_ = tw.Flush()
		if len(sc.Badges) > 0 {
			fmt.Fprintf(w, "  %s %s\n", faint("cocok untuk:"), strings.Join(sc.Badges, ", "))
		}
		fmt.Fprintf(w, "  %s\n\n", sc.Insight)
	}
}

func renderHistory(w io.Writer, logs []domain.SearchLog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tQUERY\tINTENT\tREGION\tRESULTS\tTOOK")
	for _, l := range logs {
		region := l.Region
		if region == "" {
			region = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Query, l.Intent, region, l.ResultCount, l.Duration.Round(time.Microsecond))
	}
	_ = tw.Flush()
}
