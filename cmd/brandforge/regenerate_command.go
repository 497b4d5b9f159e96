package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"brandforge/internal/domain"
)

func parseKind(value string) (domain.AssetKind, error) {
	switch domain.AssetKind(value) {
	case domain.AssetKindImage, domain.AssetKindVideo:
		return domain.AssetKind(value), nil
	default:
		return "", fmt.Errorf("unsupported kind %q (image or video)", value)
	}
}

func parseAspect(value string) (domain.AspectRatio, error) {
	switch domain.AspectRatio(value) {
	case domain.AspectVertical, domain.AspectPortrait, domain.AspectSquare, domain.AspectLandscape:
		return domain.AspectRatio(value), nil
	default:
		return "", fmt.Errorf("unsupported aspect ratio %q (9:16, 3:4, 1:1 or 16:9)", value)
	}
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		kindFlag   string
		aspectFlag string
		prompt     string
	)

	cmd := &cobra.Command{
		Use:   "regenerate <image> [image...]",
		Short: "Generate a single asset outside the full pipeline",
		Long: `Generate one asset from the given source images, without running brand
analysis or the scheduler. Useful to redo a single creative with a new
prompt, kind or aspect ratio.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			aspect, err := parseAspect(aspectFlag)
			if err != nil {
				return err
			}

			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			app.state.SetSourceURLs(args)
			asset, err := app.orch.RegenerateAsset(cmd.Context(), kind, aspect, prompt)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %s %s via %s\n", asset.Kind, asset.AspectRatio, asset.Provider)
			fmt.Fprintln(out, asset.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", string(domain.AssetKindImage), "Asset kind: image or video")
	cmd.Flags().StringVar(&aspectFlag, "aspect", string(domain.AspectSquare), "Aspect ratio: 9:16, 3:4, 1:1 or 16:9")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Generation prompt (defaults to a generic product shot)")

	return cmd
}
