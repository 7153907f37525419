package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server and source status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if format := getOutputFormat(); format != "table" {
				summary := map[string]interface{}{}

				summary["healthy"] = apiClient.Health().Healthz(ctx) == nil
				summary["ready"] = apiClient.Health().Readyz(ctx) == nil
				if sources, err := apiClient.Search().Sources(ctx); err == nil {
					summary["sources"] = len(sources)
				}
				if lists, err := apiClient.Carts().List(ctx, getOwnerID()); err == nil {
					summary["lists"] = len(lists)
				}
				return printOutput(summary)
			}

			fmt.Println("PriceWise Status")
			fmt.Println(strings.Repeat("=", 40))

			if err := apiClient.Health().Healthz(ctx); err != nil {
				fmt.Printf("  Server:   unreachable (%v)\n", err)
				return nil
			}
			fmt.Println("  Server:   up")

			if err := apiClient.Health().Readyz(ctx); err != nil {
				fmt.Printf("  Storage:  not ready (%v)\n", err)
			} else {
				fmt.Println("  Storage:  ready")
			}

			sources, err := apiClient.Search().Sources(ctx)
			if err != nil {
				fmt.Printf("  Sources:  (error: %v)\n", err)
			} else {
				names := make([]string, len(sources))
				for i, s := range sources {
					names[i] = s.Name
				}
				fmt.Printf("  Sources:  %d configured (%s)\n", len(sources), strings.Join(names, ", "))
			}

			lists, err := apiClient.Carts().List(ctx, getOwnerID())
			if err != nil {
				fmt.Printf("  Lists:    (error: %v)\n", err)
			} else {
				fmt.Printf("  Lists:    %d for owner %s\n", len(lists), getOwnerID())
			}

			return nil
		},
	}
}
