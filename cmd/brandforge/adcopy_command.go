package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"brandforge/internal/domain"
)

func newAdCopyCommand(ctx *commandContext) *cobra.Command {
	var (
		historyID   string
		instruction string
	)

	cmd := &cobra.Command{
		Use:   "adcopy",
		Short: "Regenerate ad copy from a past run's brand analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.history.Get(cmd.Context(), historyID)
			if err != nil {
				return err
			}
			if entry.Analysis == nil {
				return fmt.Errorf("history entry %s: %w", historyID, domain.ErrNoAnalysis)
			}
			app.state.SetAnalysis(entry.Analysis)

			adCopy, err := app.orch.RegenerateAdCopy(cmd.Context(), instruction)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Headline: %s\n", adCopy.Headline)
			if adCopy.Tagline != "" {
				fmt.Fprintf(out, "Tagline:  %s\n", adCopy.Tagline)
			}
			fmt.Fprintf(out, "CTA:      %s\n", adCopy.CTA)
			fmt.Fprintf(out, "%s\n", adCopy.Description)
			if len(adCopy.Hashtags) > 0 {
				fmt.Fprintf(out, "Hashtags: %s\n", strings.Join(adCopy.Hashtags, " "))
			}
			for platform, caption := range map[string]string{
				"Instagram": adCopy.InstagramCaption,
				"Facebook":  adCopy.FacebookCaption,
				"Twitter":   adCopy.TwitterCaption,
				"LinkedIn":  adCopy.LinkedInCaption,
				"TikTok":    adCopy.TikTokCaption,
			} {
				if caption != "" {
					fmt.Fprintf(out, "\n[%s]\n%s\n", platform, caption)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&historyID, "from", "", "History entry id to reuse the brand analysis from")
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "Steering instruction for the rewrite")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
