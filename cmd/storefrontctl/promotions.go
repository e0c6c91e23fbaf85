package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newPromotionsCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promotions",
		Short: "Inspect promotions and the prices they produce",
	}

	vigent := &cobra.Command{
		Use:   "vigent",
		Short: "List the promotions in effect right now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, load, func(ctx context.Context, rt *runtime) error {
				items, err := rt.Services.Promotions.ListVigent(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), items)
			})
		},
	}

	quote := &cobra.Command{
		Use:   "quote [productId]",
		Short: "Resolve the current price of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "productId must be a uuid")
			}
			return withRuntime(cmd, load, func(ctx context.Context, rt *runtime) error {
				q, err := rt.Services.Promotions.PricingForProduct(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), q)
			})
		},
	}

	cmd.AddCommand(vigent, quote)
	return cmd
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
