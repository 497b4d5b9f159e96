package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FetchSource resolves a reference to raw bytes. References are either
// http(s) URLs (already-hosted assets) or local filesystem paths from the
// asset store.
func FetchSource(ctx context.Context, client *http.Client, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", fmt.Errorf("empty source reference")
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, "", fmt.Errorf("create source request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetch source %s: %w", ref, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, "", fmt.Errorf("fetch source %s: status %d", ref, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read source %s: %w", ref, err)
		}
		return data, resp.Header.Get("Content-Type"), nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, "", fmt.Errorf("read source %s: %w", ref, err)
	}
	return data, mimeForPath(ref), nil
}

// SourceAsDataURI returns a reference usable by hosted providers that cannot
// reach the local filesystem: http(s) URLs pass through, local files are
// inlined as data URIs.
func SourceAsDataURI(ctx context.Context, client *http.Client, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	data, mime, err := FetchSource(ctx, client, ref)
	if err != nil {
		return "", err
	}
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return ""
	}
}
