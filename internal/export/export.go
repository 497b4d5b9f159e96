// Package export writes generated assets to disk, singly or bundled into a
// zip archive.
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"brandforge/internal/domain"
	"brandforge/internal/providers"
)

// ArchiveName is the default filename of the bundled download.
const ArchiveName = "brandforge-assets.zip"

// Exporter fetches asset payloads (local paths or hosted URLs) and writes
// them out.
type Exporter struct {
	httpClient *http.Client
}

// New returns an Exporter. A nil client falls back to http.DefaultClient.
func New(client *http.Client) *Exporter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Exporter{httpClient: client}
}

func assetFilename(asset domain.Asset) string {
	ext := "png"
	if asset.Kind == domain.AssetKindVideo {
		ext = "mp4"
	}
	aspect := strings.ReplaceAll(string(asset.AspectRatio), ":", "x")
	return fmt.Sprintf("%s-%s-%s.%s", asset.Kind, aspect, asset.ID, ext)
}

// SaveAsset writes one asset into destDir and returns the written path.
func (e *Exporter) SaveAsset(ctx context.Context, asset domain.Asset, destDir string) (string, error) {
	if asset.URL == "" {
		return "", fmt.Errorf("asset %s has no result", asset.ID)
	}
	data, _, err := providers.FetchSource(ctx, e.httpClient, asset.URL)
	if err != nil {
		return "", fmt.Errorf("export asset %s: %w", asset.ID, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	path := filepath.Join(destDir, assetFilename(asset))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset %s: %w", asset.ID, err)
	}
	return path, nil
}

// SaveArchive bundles every completed asset into a zip at destPath. It
// returns how many assets were written. Assets whose payload cannot be
// fetched are skipped rather than failing the whole archive.
func (e *Exporter) SaveArchive(ctx context.Context, assets []domain.Asset, destPath string) (int, error) {
	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	written := 0
	for _, asset := range assets {
		if !asset.Completed() || asset.URL == "" {
			continue
		}
		data, _, err := providers.FetchSource(ctx, e.httpClient, asset.URL)
		if err != nil {
			continue
		}
		w, err := zw.Create(assetFilename(asset))
		if err != nil {
			return written, fmt.Errorf("add archive entry: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return written, fmt.Errorf("write archive entry: %w", err)
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("finalize archive: %w", err)
	}
	return written, nil
}
