package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/product-search/pkg/controller"
	"github.com/Sternrassler/product-search/pkg/render"
)

// textLabel is a plain label element.
type textLabel struct {
	mu   sync.Mutex
	text string
}

func (l *textLabel) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

func (l *textLabel) SetText(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = s
}

func newPageCmd(a *app) *cobra.Command {
	var (
		query string
		index int
	)

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Fetch one page of results and print it as table rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if index < 0 {
				return fmt.Errorf("--page must be >= 0, got %d", index)
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}

			body := render.NewHTMLTableBody()
			current := &textLabel{text: "1"}
			total := &textLabel{text: "1"}

			ctrl := controller.New(c, controller.Elements{
				TableBody:   body,
				CurrentPage: current,
				TotalPages:  total,
			}, controller.Config{Logger: &a.logger})
			ctrl.Initialize()
			defer ctrl.Close()

			if err := ctrl.FetchAndRender(cmd.Context(), query, index); err != nil {
				return fmt.Errorf("fetch page %d: %w", index, err)
			}

			state := ctrl.State()
			out := cmd.OutOrStdout()
			if html := body.HTML(); html != "" {
				fmt.Fprintln(out, html)
			}
			fmt.Fprintf(out, "Page %s / %s (%d rows, prev %t, next %t)\n",
				current.Text(), total.Text(), body.Len(), state.HasPrev(), state.HasNext())
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search text")
	cmd.Flags().IntVarP(&index, "page", "p", 0, "zero-based page index")
	return cmd
}
