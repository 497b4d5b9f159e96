package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"brandforge/internal/domain"
	"brandforge/internal/history"
	"brandforge/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		instruction string
		vertical    int
		portrait    int
		square      int
		landscape   int
		videos      int
		carousels   int
	)

	cmd := &cobra.Command{
		Use:   "generate <image> [image...]",
		Short: "Run the full pipeline against one or more product images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			counts := domain.AssetCounts{
				Vertical:  vertical,
				Portrait:  portrait,
				Square:    square,
				Landscape: landscape,
				Video:     videos,
				Carousel:  carousels,
			}

			result, err := app.orch.Run(cmd.Context(), pipeline.GenerateRequest{
				SourcePaths: args,
				Instruction: instruction,
				Counts:      counts,
			})
			if err != nil {
				return err
			}

			entry := history.Snapshot(result.Analysis, result.Assets, result.AdCopy)
			if err := app.history.Append(cmd.Context(), entry); err != nil {
				app.logger.Warn().Err(err).Msg("failed to record history entry")
			}

			printRun(cmd, result, entry.ID)
			return nil
		},
	}

	defaults := domain.DefaultCounts()
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "Creative instruction passed to the brief and ad copy")
	cmd.Flags().IntVar(&vertical, "vertical", defaults.Vertical, "9:16 story images to generate (0-5)")
	cmd.Flags().IntVar(&portrait, "portrait", defaults.Portrait, "3:4 portrait images to generate (0-5)")
	cmd.Flags().IntVar(&square, "square", defaults.Square, "1:1 feed images to generate (0-5)")
	cmd.Flags().IntVar(&landscape, "landscape", defaults.Landscape, "16:9 landscape images to generate (0-5)")
	cmd.Flags().IntVar(&videos, "video", defaults.Video, "Video clips to generate (0-5)")
	cmd.Flags().IntVar(&carousels, "carousel", defaults.Carousel, "Carousel sets to generate (0-5)")

	return cmd
}

func printRun(cmd *cobra.Command, result *pipeline.RunResult, historyID string) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Assets))
	for _, asset := range result.Assets {
		detail := asset.URL
		if asset.Status == domain.AssetStatusFailed {
			detail = asset.Error
		}
		rows = append(rows, []string{
			string(asset.Kind),
			string(asset.AspectRatio),
			string(asset.Status),
			string(asset.Provider),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Kind", "Aspect", "Status", "Provider", "Result"}, rows))

	if result.AdCopy != nil {
		fmt.Fprintf(out, "\nHeadline: %s\n", result.AdCopy.Headline)
		if result.AdCopy.Tagline != "" {
			fmt.Fprintf(out, "Tagline:  %s\n", result.AdCopy.Tagline)
		}
		fmt.Fprintf(out, "CTA:      %s\n", result.AdCopy.CTA)
		fmt.Fprintf(out, "%s\n", result.AdCopy.Description)
		if len(result.AdCopy.Hashtags) > 0 {
			fmt.Fprintf(out, "Hashtags: %s\n", strings.Join(result.AdCopy.Hashtags, " "))
		}
	}
	fmt.Fprintf(out, "\nSaved as history entry %s\n", historyID)
}
