package main

import (
	"context"
	"errors"
	"fmt"

	"export-assistant/internal/catalog"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Maintain the product catalog",
}

var seedOverwrite bool

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the built-in products and leadership profile to storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := openCatalogStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cs.Close()
		if err := cs.catalog.Seed(cmd.Context(), seedOverwrite); err != nil {
			return err
		}
		fmt.Println("Catalog seeded.")
		return nil
	},
}

var catalogReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Elasticsearch product index from storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := openCatalogStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cs.Close()
		if cs.index == nil {
			return errors.New("elasticsearch is disabled in the configuration")
		}
		if err := cs.catalog.Seed(cmd.Context(), false); err != nil {
			return err
		}
		if err := reindex(cmd.Context(), cs.catalog, cs.index); err != nil {
			return err
		}
		fmt.Println("Product index rebuilt.")
		return nil
	},
}

func init() {
	catalogSeedCmd.Flags().BoolVar(&seedOverwrite, "overwrite", false, "replace stored products and leadership")
	catalogCmd.AddCommand(catalogSeedCmd, catalogReindexCmd)
	rootCmd.AddCommand(catalogCmd)
}

func reindex(ctx context.Context, svc *catalog.Service, index *catalog.SearchIndex) error {
	products, err := svc.Products(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	if err := index.IndexProducts(ctx, products); err != nil {
		return fmt.Errorf("index products: %w", err)
	}
	log.Info("product index rebuilt", map[string]interface{}{"products": len(products)})
	return nil
}
