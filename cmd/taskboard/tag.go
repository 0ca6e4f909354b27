package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(tagAddCmd())
	cmd.AddCommand(tagListCmd())
	return cmd
}

func tagAddCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			tag, err := svc.factory.CreateTag(cmd.Context(), args[0], color)
			if err != nil {
				return err
			}
			log.Info().Str("id", tag.ID).Str("color", tag.Color).Msg("tag added")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tag.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "hex color, e.g. #ff8800")
	return cmd
}

func tagListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openServices()
			if err != nil {
				return err
			}
			defer closeFn()

			tags, err := svc.factory.Tags(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tags {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
			}
			return nil
		},
	}
}
