package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newHistoryListCommand(ctx).RunE(cmd, args)
		},
	}
	cmd.AddCommand(newHistoryListCommand(ctx))
	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryDeleteCommand(ctx))
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List past runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.history.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				name := e.BrandName
				if name == "" {
					name = e.Subject
				}
				rows = append(rows, []string{
					e.ID,
					e.CreatedAt.Local().Format(time.DateTime),
					name,
					fmt.Sprintf("%d", e.AssetCount),
					e.Headline,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Created", "Brand", "Assets", "Headline"}, rows))
			return nil
		},
	}
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run's assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.history.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s)\n", entry.ID, entry.CreatedAt.Local().Format(time.DateTime))
			if entry.BrandName != "" {
				fmt.Fprintf(out, "Brand:   %s\n", entry.BrandName)
			}
			if entry.Subject != "" {
				fmt.Fprintf(out, "Subject: %s\n", entry.Subject)
			}
			rows := make([][]string, 0, len(entry.Assets))
			for _, asset := range entry.Assets {
				rows = append(rows, []string{
					string(asset.Kind),
					string(asset.AspectRatio),
					string(asset.Status),
					asset.URL,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Kind", "Aspect", "Status", "Result"}, rows))
			if entry.AdCopy != nil {
				fmt.Fprintf(out, "\nHeadline: %s\n", entry.AdCopy.Headline)
			}
			return nil
		},
	}
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one run from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.history.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted history entry %s\n", args[0])
			return nil
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the entire history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.history.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		},
	}
}
