package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paisapro/pricewise/pkg/client"
)

func newSearchCmd() *cobra.Command {
	var (
		sources  []string
		topN     int
		noSort   bool
		equalist bool
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search product prices across storefronts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")

			opts := &client.SearchOptions{
				Sources: sources,
				TopN:    topN,
			}
			if noSort {
				sort := false
				opts.Sort = &sort
			}
			if equalist {
				eq := true
				opts.EqualDistribution = &eq
			}

			result, err := apiClient.Search().Search(context.Background(), term, opts)
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			table := NewTable("RANK", "SOURCE", "PRODUCT", "PRICE", "USD", "URL")
			for _, rec := range result.Recommendations {
				table.AddRow(
					fmt.Sprintf("%d", rec.Rank),
					rec.Source,
					truncate(rec.Name, 40),
					formatMoney(rec.PriceLocal, rec.Currency),
					fmt.Sprintf("%.2f", rec.PriceReference),
					truncate(rec.URL, 48),
				)
			}
			table.Render()

			if len(result.Failures) > 0 {
				fmt.Println()
				for _, f := range result.Failures {
					fmt.Printf("warning: %s: %s\n", f.Source, f.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "sources", nil, "subset of sources to query")
	cmd.Flags().IntVar(&topN, "top", 0, "number of recommendations to return")
	cmd.Flags().BoolVar(&noSort, "no-sort", false, "keep arrival order instead of sorting by price")
	cmd.Flags().BoolVar(&equalist, "equal-distribution", false, "cap results per source")

	return cmd
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured storefronts",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := apiClient.Search().Sources(context.Background())
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(sources)
			}

			table := NewTable("NAME", "CURRENCY")
			for _, s := range sources {
				table.AddRow(s.Name, s.Currency)
			}
			table.Render()
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history <product>",
		Short: "Show recorded price history for a product",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := strings.Join(args, " ")

			points, err := apiClient.History().History(context.Background(), product, days)
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(points)
			}

			table := NewTable("RECORDED", "SOURCE", "PRICE")
			for _, p := range points {
				table.AddRow(
					p.RecordedAt.Format("2006-01-02 15:04"),
					p.Source,
					fmt.Sprintf("%.2f", p.PriceLocal),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "window in days")
	return cmd
}
