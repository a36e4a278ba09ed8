package covers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	// maxDownloadSize caps remote covers well below the upload limit.
	maxDownloadSize = 10 * 1024 * 1024

	downloadTimeout = 30 * time.Second
)

// Downloader fetches remote cover images into a Storage.
type Downloader struct {
	httpClient *http.Client
	storage    Storage
}

func NewDownloader(storage Storage) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: downloadTimeout},
		storage:    storage,
	}
}

// Download returns the stored filename.
func (d *Downloader) Download(ctx context.Context, bookID int, url string) (string, error) {
	if url == "" {
		return "", errors.New("empty cover URL")
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", "bookdb/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "download")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return "", errors.Wrap(err, "read data")
	}
	if len(data) > maxDownloadSize {
		return "", errors.Errorf("download failed: cover is larger than %d bytes", maxDownloadSize)
	}

	return d.storage.StoreCoverImage(ctx, bookID, bytes.NewReader(data))
}
