package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/xela07ax/longevity-dashboard/internal/apiclient"
	"github.com/xela07ax/longevity-dashboard/internal/display"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

const recentRunsShown = 5

func overviewCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Print overview metrics and recent runs from a running dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			client := apiclient.New(baseURL, nil, zap.NewNop())
			return printOverview(ctx, client, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:5174", "Dashboard base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}

type fetcher interface {
	Fetch(ctx context.Context, primary, fallback string, dst any) error
}

// printOverview повторяет главную страницу: карточки метрик и таблицу прогонов
func printOverview(ctx context.Context, c fetcher, out io.Writer) error {
	var m domain.OverviewMetrics
	if err := c.Fetch(ctx, "/api/metrics/overview", "/mocks/metrics_overview.json", &m); err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	var runs []domain.RunListItem
	if err := c.Fetch(ctx, "/api/runs", "/mocks/runs.json", &runs); err != nil {
		return fmt.Errorf("runs: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Avg latency\t%s\n", display.OptionalSeconds(m.AvgLatencyS))
	fmt.Fprintf(tw, "Avg tokens\t%s\n", display.OptionalFloat(m.AvgTokens, 0))
	fmt.Fprintf(tw, "Plan consistency\t%s\n", display.OptionalFloat(m.PlanConsistencyScore, 2))
	fmt.Fprintf(tw, "Validity coverage\t%s\n", display.OptionalPercent(m.ScientificValidityCoveragePct))
	fmt.Fprintf(tw, "Runs\t%d\n\n", m.RunsCount)

	fmt.Fprintln(tw, "RUN\tTIMESTAMP\tUSER\tSCORE\tSTATUS")
	for _, r := range runs[:min(len(runs), recentRunsShown)] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, display.OptionalString(r.Timestamp), display.OptionalString(r.User),
			display.OptionalFloat(r.PlanScore, 1), r.Status)
	}
	return tw.Flush()
}
