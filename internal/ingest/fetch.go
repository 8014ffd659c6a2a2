package ingest

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// FetchJSON downloads and decompresses a crate's documentation JSON from
// docs.rs. The version "latest" is resolved by docs.rs via redirect. This
// is the one I/O collaborator spec §5 calls out as the only blocking
// operation in the system — everything downstream of the returned bytes
// (ParseCrate, Index.Ingest) is CPU-only.
func FetchJSON(name, version string) ([]byte, error) {
	if version == "" {
		version = "latest"
	}

	url := fmt.Sprintf("https://docs.rs/crate/%s/%s/json", name, version)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "ruggle/0.1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("docs.rs returned %d for %s/%s: %s", resp.StatusCode, name, version, string(body))
	}

	// docs.rs serves documentation JSON zstd-compressed.
	decoder, err := zstd.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing documentation JSON: %w", err)
	}
	return data, nil
}
