package client_test

import (
	"context"
	"fmt"
	"log"

	"github.com/paisapro/pricewise/pkg/client"
)

func ExampleNewClient() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	if err := c.Health().Healthz(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func ExampleSearchService_Search() {
	c := client.NewClient(client.Config{BaseURL: "http://localhost:8080"})
	ctx := context.Background()

	result, err := c.Search().Search(ctx, "olpers milk 1l", &client.SearchOptions{
		TopN: 3,
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, rec := range result.Recommendations {
		fmt.Printf("#%d %s @ %s: %.2f PKR (%.2f USD)\n",
			rec.Rank, rec.Name, rec.Source, rec.PriceLocal, rec.PriceReference)
	}
}

func ExampleCartService_Optimize() {
	c := client.NewClient(client.Config{BaseURL: "http://localhost:8080"})
	ctx := context.Background()

	list, err := c.Carts().Create(ctx, client.CreateListRequest{
		OwnerID: "user-1",
		Name:    "Weekly groceries",
		Items: []client.NewItem{
			{ProductName: "milk 1l", Quantity: 2},
			{ProductName: "bread", Quantity: 1},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	snap, err := c.Carts().Optimize(ctx, list.ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("total %.2f USD, potential savings %.2f USD\n",
		snap.TotalCostRef, snap.PotentialSavRef)
}
