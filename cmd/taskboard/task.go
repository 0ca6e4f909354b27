package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/glamour"
	"github.com/metalagman/taskboard/internal/task"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskToggleCmd())
	cmd.AddCommand(taskAttachCmd())
	cmd.AddCommand(taskDetachCmd())
	cmd.AddCommand(taskSubtaskCmd())
	cmd.AddCommand(taskRemoveCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var description, parentID string
	var tagIDs []string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			title := strings.Join(args, " ")
			created, err := svc.factory.CreateCompositeTask(cmd.Context(), title, description, parentID, tagIDs)
			if err != nil {
				return err
			}
			log.Info().Str("id", created.ID()).Msg("task added")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), created.ID())
			return err
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&parentID, "parent", "", "create the task under this parent id")
	cmd.Flags().StringArrayVar(&tagIDs, "tag", nil, "tag id (repeatable)")
	return cmd
}

func taskListCmd() *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List root tasks with their subtasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			roots, err := svc.factory.GetRootTasks(cmd.Context())
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				log.Info().Msg("no tasks")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, root := range roots {
				if showIDs {
					task.Walk(root, func(n task.Component, depth int) bool {
						_, _ = fmt.Fprintf(out, "%s\t%s%s\n", n.ID(), strings.Repeat("  ", depth), n.Title())
						return true
					})
					continue
				}
				_, _ = fmt.Fprintln(out, root.Display())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "print ids and titles instead of checklists")
	return cmd
}

func taskShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			tree, err := svc.factory.GetTaskWithChildren(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeTask(cmd.OutOrStdout(), tree, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format (text|json|yaml|markdown)")
	return cmd
}

func writeTask(w io.Writer, c task.Component, format string) error {
	switch format {
	case formatText:
		_, err := fmt.Fprintln(w, c.Display())
		return err
	case formatJSON:
		data, err := sonic.ConfigStd.MarshalIndent(task.Snap(c), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		data, err := yaml.Marshal(task.Snap(c))
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatMarkdown:
		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("create markdown renderer: %w", err)
		}
		out, err := renderer.Render("# " + c.Title() + "\n\n" + task.Markdown(c))
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or markdown)", format)
	}
}

func taskToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a task and all of its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			tree, err := svc.factory.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tree.Display())
			return err
		},
	}
}

func taskAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <parent-id> <child-id>",
		Short: "Move an existing task under a parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			parent, err := svc.factory.AttachTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), parent.Display())
			return err
		},
	}
}

func taskDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach <parent-id> <child-id>",
		Short: "Detach a subtask so it becomes a root task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			parent, err := svc.factory.DetachTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), parent.Display())
			return err
		},
	}
}

func taskSubtaskCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "subtask <parent-id> <title>",
		Short: "Create a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			parent, err := svc.factory.AddSubtask(cmd.Context(), args[0], strings.Join(args[1:], " "), description)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), parent.Display())
			return err
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "subtask description")
	return cmd
}

func taskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.factory.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Str("id", args[0]).Msg("task deleted")
			return nil
		},
	}
}
