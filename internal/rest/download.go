package rest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DownloadResult tells the caller where the attachment ended up. When
// Fallback is set the bytes could not be saved and URL should be opened
// directly instead.
type DownloadResult struct {
	Path     string `json:"path,omitempty"`
	URL      string `json:"url"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// Download fetches a stored attachment into dir as name (or "download").
// Failures degrade to a fallback result carrying the raw URL.
func (c *Client) Download(ctx context.Context, file, name, dir string) DownloadResult {
	res := DownloadResult{URL: c.FileURL(file)}
	path, err := c.download(ctx, res.URL, saveName(name), dir)
	if err != nil {
		res.Fallback = true
		res.Reason = err.Error()
		return res
	}
	res.Path = path
	return res
}

func (c *Client) download(ctx context.Context, url, name, dir string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()
	if resp.IsError() {
		return "", &StatusError{Op: "download", Code: resp.StatusCode()}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	f, path, err := createUnique(dir, name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("save: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func saveName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "download"
	}
	return name
}

// createUnique opens dir/name, or dir/"stem (n).ext" when taken.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s", name, dir)
}
