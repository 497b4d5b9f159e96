package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"brandforge/internal/providers"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run analysis reports against a brand image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newEngagementReportCommand(ctx))
	cmd.AddCommand(newStrategyReportCommand(ctx))
	return cmd
}

func newEngagementReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "engagement <image>",
		Short: "Predict per-platform engagement for one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ref, err := providers.SourceAsDataURI(cmd.Context(), http.DefaultClient, args[0])
			if err != nil {
				return err
			}
			report, err := app.analyzer.AnalyzeEngagement(cmd.Context(), ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overall score: %d/100\n\n", report.OverallScore)
			rows := make([][]string, 0, len(report.PlatformPredictions))
			for _, p := range report.PlatformPredictions {
				rows = append(rows, []string{p.Platform, fmt.Sprintf("%d", p.Score), p.Reasoning})
			}
			fmt.Fprintln(out, renderTable([]string{"Platform", "Score", "Reasoning"}, rows))
			if len(report.Strengths) > 0 {
				fmt.Fprintf(out, "\nStrengths:\n  %s\n", strings.Join(report.Strengths, "\n  "))
			}
			if len(report.Improvements) > 0 {
				fmt.Fprintf(out, "\nImprovements:\n  %s\n", strings.Join(report.Improvements, "\n  "))
			}
			if report.KeyInsights != "" {
				fmt.Fprintf(out, "\n%s\n", report.KeyInsights)
			}
			return nil
		},
	}
}

func newStrategyReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy <image>",
		Short: "Build a brand strategy report from one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ref, err := providers.SourceAsDataURI(cmd.Context(), http.DefaultClient, args[0])
			if err != nil {
				return err
			}
			strategy, err := app.analyzer.AnalyzeBrandStrategy(cmd.Context(), ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archetype: %s\n%s\n\n", strategy.BrandArchetype, strategy.ArchetypeDescription)
			fmt.Fprintf(out, "Positioning: %s\n\n", strategy.PositioningStatement)
			fmt.Fprintf(out, "Audience: %s\n%s\n", strategy.TargetAudience.Demographics, strategy.TargetAudience.Psychographics)
			if len(strategy.MessagingPillars) > 0 {
				fmt.Fprintf(out, "\nMessaging pillars: %s\n", strings.Join(strategy.MessagingPillars, ", "))
			}
			if len(strategy.ContentThemes) > 0 {
				fmt.Fprintf(out, "Content themes:    %s\n", strings.Join(strategy.ContentThemes, ", "))
			}
			for _, post := range strategy.SamplePosts {
				fmt.Fprintf(out, "\n[%s] (%s)\n%s\n", post.Platform, post.BestTime, post.Caption)
			}
			if strategy.CompetitiveAdvantage != "" {
				fmt.Fprintf(out, "\n%s\n", strategy.CompetitiveAdvantage)
			}
			return nil
		},
	}
}
