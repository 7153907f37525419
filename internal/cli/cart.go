package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paisapro/pricewise/pkg/client"
)

func newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage shopping lists and optimize carts",
	}

	cmd.AddCommand(newCartCreateCmd())
	cmd.AddCommand(newCartListCmd())
	cmd.AddCommand(newCartShowCmd())
	cmd.AddCommand(newCartDeleteCmd())
	cmd.AddCommand(newCartAddCmd())
	cmd.AddCommand(newCartRemoveCmd())
	cmd.AddCommand(newCartQuantityCmd())
	cmd.AddCommand(newCartPurchasedCmd())
	cmd.AddCommand(newCartReactivateCmd())
	cmd.AddCommand(newCartOptimizeCmd())
	cmd.AddCommand(newCartSnapshotCmd())

	return cmd
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s: %s", what, arg)
	}
	return id, nil
}

// parseItemSpec splits "name:quantity" into its parts; a bare name means
// quantity 1
func parseItemSpec(spec string) (client.NewItem, error) {
	name := spec
	qty := 1
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		n, err := strconv.Atoi(spec[idx+1:])
		if err != nil || n < 1 {
			return client.NewItem{}, fmt.Errorf("invalid item spec %q, want name:quantity", spec)
		}
		name = spec[:idx]
		qty = n
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return client.NewItem{}, fmt.Errorf("invalid item spec %q, blank product name", spec)
	}
	return client.NewItem{ProductName: name, Quantity: qty}, nil
}

func newCartCreateCmd() *cobra.Command {
	var items []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.CreateListRequest{
				OwnerID: getOwnerID(),
				Name:    args[0],
			}
			for _, spec := range items {
				item, err := parseItemSpec(spec)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}

			list, err := apiClient.Carts().Create(context.Background(), req)
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}
			fmt.Printf("Created list %q (id %d) with %d item(s)\n", list.Name, list.ID, len(list.Items))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&items, "item", nil, "initial item as name:quantity (repeatable)")
	return cmd
}

func newCartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show your shopping lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := apiClient.Carts().List(context.Background(), getOwnerID())
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(summaries)
			}

			table := NewTable("ID", "NAME", "ITEMS", "PURCHASED", "UPDATED")
			for _, s := range summaries {
				table.AddRow(
					fmt.Sprintf("%d", s.ID),
					s.Name,
					fmt.Sprintf("%d", s.ItemCount),
					fmt.Sprintf("%d", s.PurchasedCount),
					s.UpdatedAt.Format("2006-01-02 15:04"),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newCartShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show a shopping list with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list id")
			if err != nil {
				return err
			}

			list, err := apiClient.Carts().Get(context.Background(), id)
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			fmt.Printf("%s (id %d)\n\n", list.Name, list.ID)
			table := NewTable("ITEM", "PRODUCT", "QTY", "STATUS", "BEST PRICE")
			for _, it := range list.Items {
				best := "-"
				if it.NoCoverage {
					best = "(no coverage)"
				} else if len(it.Recommendations) > 0 {
					r := it.Recommendations[0]
					best = fmt.Sprintf("%s @ %s", formatMoney(r.PriceLocal, r.Currency), r.Source)
				}
				table.AddRow(
					fmt.Sprintf("%d", it.ID),
					truncate(it.ProductName, 40),
					fmt.Sprintf("%d", it.Quantity),
					formatStatus(it.Status),
					best,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newCartDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list id")
			if err != nil {
				return err
			}
			if err := apiClient.Carts().Delete(context.Background(), id, getOwnerID()); err != nil {
				return err
			}
			fmt.Printf("Deleted list %d\n", id)
			return nil
		},
	}
}

func newCartAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <list-id> <name:quantity>",
		Short: "Add a product to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list id")
			if err != nil {
				return err
			}
			item, err := parseItemSpec(args[1])
			if err != nil {
				return err
			}

			li, err := apiClient.Carts().AddItem(context.Background(), id, item)
			if err != nil {
				return err
			}
			fmt.Printf("Added %q x%d (item %d)\n", li.ProductName, li.Quantity, li.ID)
			return nil
		},
	}
}

func newCartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item from its list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			if err := apiClient.Carts().DeleteItem(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("Removed item %d\n", id)
			return nil
		},
	}
}

func newCartQuantityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quantity <item-id> <quantity>",
		Short: "Change an item's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 1 {
				return fmt.Errorf("invalid quantity: %s", args[1])
			}
			if err := apiClient.Carts().UpdateQuantity(context.Background(), id, qty); err != nil {
				return err
			}
			fmt.Printf("Item %d quantity set to %d\n", id, qty)
			return nil
		},
	}
}

func newCartPurchasedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purchased <item-id>",
		Short: "Mark an item as purchased",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			if err := apiClient.Carts().MarkPurchased(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("Item %d marked purchased\n", id)
			return nil
		},
	}
}

func newCartReactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <item-id>",
		Short: "Move a purchased item back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			if err := apiClient.Carts().Reactivate(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("Item %d reactivated\n", id)
			return nil
		},
	}
}

func printSnapshot(snap *client.Snapshot) error {
	if getOutputFormat() != "table" {
		return printOutput(snap)
	}

	table := NewTable("PRODUCT", "QTY", "STATUS", "LINE TOTAL", "SAVINGS")
	for _, it := range snap.Items {
		total := "-"
		savings := "-"
		if it.NoCoverage {
			total = "(no coverage)"
		} else if it.Status != "purchased" {
			total = fmt.Sprintf("%.2f", it.LineTotalReference)
			savings = fmt.Sprintf("%.2f", it.LineSavingsRef)
		}
		table.AddRow(
			truncate(it.ProductName, 40),
			fmt.Sprintf("%d", it.Quantity),
			formatStatus(it.Status),
			total,
			savings,
		)
	}
	table.Render()

	fmt.Printf("\nTotal cost:        %.2f USD (%.2f PKR)\n", snap.TotalCostRef, snap.TotalCostLocal)
	fmt.Printf("Potential savings: %.2f USD (%.2f PKR)\n", snap.PotentialSavRef, snap.PotentialSavLocal)
	if len(snap.UncoveredItems) > 0 {
		fmt.Printf("Uncovered items:   %d\n", len(snap.UncoveredItems))
	}
	fmt.Printf("Optimized at:      %s\n", snap.OptimizedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func newCartOptimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize <list-id>",
		Short: "Re-price a list and compute the cheapest basket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list id")
			if err != nil {
				return err
			}
			snap, err := apiClient.Carts().Optimize(context.Background(), id)
			if err != nil {
				return err
			}
			return printSnapshot(snap)
		},
	}
}

func newCartSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <list-id>",
		Short: "Show the last optimization snapshot without recomputing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list id")
			if err != nil {
				return err
			}
			snap, err := apiClient.Carts().Snapshot(context.Background(), id)
			if err != nil {
				return err
			}
			return printSnapshot(snap)
		},
	}
}
