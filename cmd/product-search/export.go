package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Sternrassler/product-search/pkg/pagination"
	"github.com/Sternrassler/product-search/pkg/render"
)

// printer formats the export summary with thousand separators.
var printer = message.NewPrinter(language.English)

func newExportCmd(a *app) *cobra.Command {
	var (
		query       string
		concurrency int
		maxPages    int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch every page of a query and print all table rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}

			cfg := pagination.DefaultConfig()
			cfg.MaxConcurrency = a.settings.Export.Concurrency
			cfg.MaxPages = a.settings.Export.MaxPages
			if cmd.Flags().Changed("concurrency") {
				cfg.MaxConcurrency = concurrency
			}
			if cmd.Flags().Changed("max-pages") {
				cfg.MaxPages = maxPages
			}

			result, fetchErr := pagination.NewBatchFetcher(c, cfg).FetchAll(cmd.Context(), query)
			if result == nil {
				return fmt.Errorf("export %q: %w", query, fetchErr)
			}

			body := render.NewHTMLTableBody()
			var value float64
			for _, p := range result.Products {
				body.AppendRow(render.NewRow(p))
				value += p.LineTotal()
			}
			if html := body.HTML(); html != "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
			}
			printer.Fprintf(cmd.ErrOrStderr(), "Exported %d products from %d of %d pages, total value %.2f\n",
				len(result.Products), result.Fetched, result.TotalPages, value)

			a.logger.Info().
				Str("query", query).
				Int("products", len(result.Products)).
				Int("pages", result.Fetched).
				Int("total_pages", result.TotalPages).
				Ints("failed", result.Failed).
				Msg("Export finished")

			if fetchErr != nil {
				return fmt.Errorf("export incomplete, %d pages failed: %w", len(result.Failed), fetchErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search text")
	cmd.Flags().IntVar(&concurrency, "concurrency", pagination.DefaultConfig().MaxConcurrency, "parallel page requests")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 = all)")
	return cmd
}
