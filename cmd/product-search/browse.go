package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Sternrassler/product-search/internal/tui"
	"github.com/Sternrassler/product-search/pkg/controller"
)

// errNotTerminal is returned when browse runs without an interactive terminal.
var errNotTerminal = errors.New("browse needs an interactive terminal; use page or export instead")

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newBrowseCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse products interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(cmd.OutOrStdout()) || !isTerminal(cmd.InOrStdin()) {
				return errNotTerminal
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}

			cfg := controller.Config{
				Debounce:  a.settings.Browse.Debounce,
				DropStale: a.settings.Browse.DropStale,
				Logger:    &a.logger,
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Debounce, _ = cmd.Flags().GetDuration("debounce")
			}
			if cmd.Flags().Changed("drop-stale") {
				cfg.DropStale, _ = cmd.Flags().GetBool("drop-stale")
			}

			page := tui.NewPage("1", "1")
			page.SetQuery(query)

			ctrl := controller.New(c, page.Elements(), cfg)
			ctrl.Initialize()
			defer ctrl.Close()

			// A failed first load leaves the table empty; typing retries.
			_ = ctrl.FetchAndRender(cmd.Context(), query, 0)

			program := tea.NewProgram(tui.NewModel(page),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			page.SetNotify(func() { program.Send(tui.RefreshMsg{}) })

			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run browser: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "initial search text")
	cmd.Flags().Duration("debounce", controller.DefaultConfig().Debounce, "quiet period after typing before searching")
	cmd.Flags().Bool("drop-stale", false, "ignore responses older than the newest one shown")
	return cmd
}
