// Package fetcher downloads registry dumps and reads the formats they and
// operator spreadsheets come in: Receita delimited text, ZIP archives, and
// XLSX workbooks.
package fetcher

import "context"

// Downloader saves a remote file to local disk.
type Downloader interface {
	// DownloadToFile fetches url into path and returns the bytes written.
	DownloadToFile(ctx context.Context, url, path string) (int64, error)
}
