package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/metalagman/taskboard/internal/tui"
	"github.com/spf13/cobra"
)

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			program := tea.NewProgram(
				tui.New(cmd.Context(), svc.board),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			_, err = program.Run()
			return err
		},
	}
}
