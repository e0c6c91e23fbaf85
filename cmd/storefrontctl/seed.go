package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type seedProduct struct {
	name     string
	category string
	price    string
	stock    int
}

var sampleCatalog = []seedProduct{
	{name: "Linen Shirt", category: "apparel", price: "49.90", stock: 25},
	{name: "Canvas Tote", category: "accessories", price: "19.00", stock: 40},
	{name: "Wool Beanie", category: "accessories", price: "24.50", stock: 12},
	{name: "Trail Sneakers", category: "footwear", price: "89.00", stock: 8},
	{name: "Gift Card", category: "gifts", price: "0", stock: 100},
}

func newSeedCmd(load loader) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a sample catalog and a running promotion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, load, func(ctx context.Context, rt *runtime) error {
				return seedCatalog(ctx, rt.Services.Products, rt.Services.Promotions, time.Now().UTC(), force, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the catalog already has products")
	return cmd
}

func seedCatalog(ctx context.Context, products product.Service, promos promotions.Service, now time.Time, force bool, out io.Writer) error {
	if !force {
		existing, err := products.List(ctx, product.ListInput{Pagination: pagination.Params{Limit: 1}})
		if err != nil {
			return err
		}
		if len(existing.Products) > 0 {
			fmt.Fprintln(out, "catalog already seeded; use --force to add the sample set again")
			return nil
		}
	}

	refs := make([]promotions.ProductRef, 0, 2)
	for i, item := range sampleCatalog {
		created, err := products.Create(ctx, product.CreateInput{
			Name:        item.name,
			Description: "Sample " + item.category + " item",
			Category:    item.category,
			Price:       decimal.RequireFromString(item.price),
			Stock:       item.stock,
		})
		if err != nil {
			return fmt.Errorf("seed product %q: %w", item.name, err)
		}
		fmt.Fprintf(out, "product %s %s\n", created.ID, created.Name)
		if i < 2 {
			refs = append(refs, promotions.RawRef(created.ID.String()))
		}
	}

	start := now.Truncate(24 * time.Hour)
	promo, err := promos.Create(ctx, promotions.CreateInput{
		Title:       "Launch week",
		Description: "Opening discount on selected items",
		Discount:    20,
		StartDate:   start,
		EndDate:     start.Add(7 * 24 * time.Hour),
		Products:    refs,
	})
	if err != nil {
		return fmt.Errorf("seed promotion: %w", err)
	}
	fmt.Fprintf(out, "promotion %s %s (%d%%)\n", promo.ID, promo.Title, promo.Discount)
	return nil
}
