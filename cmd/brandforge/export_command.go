package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"brandforge/internal/domain"
	"brandforge/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		historyID string
		assetID   string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save a past run's assets to disk",
		Long: `Save one asset, or every completed asset of a run bundled into a zip
archive. The run is addressed by its history entry id.`,
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

			out := cmd.OutOrStdout()
			if assetID != "" {
				var target *domain.Asset
				for i := range entry.Assets {
					if entry.Assets[i].ID == assetID {
						target = &entry.Assets[i]
						break
					}
				}
				if target == nil {
					return fmt.Errorf("asset %s: %w", assetID, domain.ErrNotFound)
				}
				path, err := app.exporter.SaveAsset(cmd.Context(), *target, outPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s\n", path)
				return nil
			}

			archivePath := filepath.Join(outPath, export.ArchiveName)
			written, err := app.exporter.SaveArchive(cmd.Context(), entry.Assets, archivePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %d assets to %s\n", written, archivePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&historyID, "from", "", "History entry id to export")
	cmd.Flags().StringVar(&assetID, "asset", "", "Export only this asset id")
	cmd.Flags().StringVarP(&outPath, "out", "o", ".", "Destination directory")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
