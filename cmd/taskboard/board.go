package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/taskboard/internal/board"
	"github.com/spf13/cobra"
)

var (
	boardColumnStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1).
				Width(24)

	boardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Work with the kanban board",
	}
	cmd.AddCommand(boardShowCmd())
	cmd.AddCommand(boardStageCmd())
	cmd.AddCommand(boardCardCmd())
	cmd.AddCommand(boardMoveCmd())
	return cmd
}

func boardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Render the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			stages, err := svc.board.Load(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderBoard(stages))
			return err
		},
	}
}

// renderBoard lays stages out side by side. Cards are numbered from zero to
// match the indexes board move expects.
func renderBoard(stages []board.Stage) string {
	columns := make([]string, 0, len(stages))
	for _, stage := range stages {
		lines := []string{boardTitleStyle.Render(stage.Name)}
		for i, card := range stage.Cards {
			lines = append(lines, fmt.Sprintf("%d. %s", i, card.Content))
		}
		columns = append(columns, boardColumnStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func boardStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <name>",
		Short: "Add a stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			_, err = svc.board.AddStage(cmd.Context(), strings.Join(args, " "))
			return err
		},
	}
}

func boardCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "card <stage> <content>",
		Short: "Add a card at the end of a stage",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			card, err := svc.board.AddCard(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), card.ID)
			return err
		},
	}
}

func boardMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from-stage> <from-index> <to-stage> <to-index>",
		Short: "Move a card",
		Long:  "Move a card. The destination index is counted after the card has been taken out of its stage.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("from-index: %w", err)
			}
			to, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("to-index: %w", err)
			}

			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			stages, err := svc.board.Move(cmd.Context(), board.Move{
				Source:      board.Location{Stage: args[0], Index: from},
				Destination: &board.Location{Stage: args[2], Index: to},
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderBoard(stages))
			return err
		},
	}
}
