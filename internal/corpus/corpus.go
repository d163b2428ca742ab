// Package corpus acquires the raw calibration text and chunks it into
// paragraph-sized samples.
package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
)

// minParagraphWords is the word count a buffered chunk must exceed before it
// is emitted as a calibration sample.
const minParagraphWords = 100

// Fetcher downloads the calibration corpus with retries and keeps a
// zstd-compressed copy on disk so repeat runs stay offline.
type Fetcher struct {
	client *retryablehttp.Client
	cfg    *config.CorpusEnvConfig
}

func NewFetcher(cfg *config.CorpusEnvConfig) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.HTTPClient.Timeout = cfg.FetchTimeout
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 20 * time.Second
	client.Logger = nil
	return &Fetcher{client: client, cfg: cfg}
}

// Text returns the raw corpus. A configured local path wins over everything,
// then the on-disk cache, then a fresh download which refills the cache.
func (f *Fetcher) Text(ctx context.Context) (string, error) {
	if f.cfg.CorpusPath != "" {
		raw, err := os.ReadFile(f.cfg.CorpusPath)
		if err != nil {
			return "", fmt.Errorf("read local corpus %s: %w", f.cfg.CorpusPath, err)
		}
		log.Info().Msgf("loaded corpus from local file %s (%d bytes)", f.cfg.CorpusPath, len(raw))
		return string(raw), nil
	}

	if text, err := readCache(f.cfg.CachePath); err == nil {
		log.Info().Msgf("loaded corpus from cache %s (%d bytes)", f.cfg.CachePath, len(text))
		return text, nil
	}

	text, err := f.download(ctx)
	if err != nil {
		return "", err
	}
	if err := writeCache(f.cfg.CachePath, text); err != nil {
		log.Warn().Err(err).Msgf("failed to cache corpus to %s", f.cfg.CachePath)
	}
	return text, nil
}

func (f *Fetcher) download(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.cfg.CorpusURL, nil)
	if err != nil {
		return "", fmt.Errorf("build corpus request: %w", err)
	}

	log.Info().Msgf("downloading corpus from %s", f.cfg.CorpusURL)
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download corpus: unexpected status %d from %s", resp.StatusCode, f.cfg.CorpusURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read corpus body: %w", err)
	}
	log.Info().Msgf("downloaded corpus (%d bytes)", len(body))
	return string(body), nil
}

func readCache(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	r, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open corpus cache %s: %w", path, err)
	}
	defer r.Close()

	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompress corpus cache %s: %w", path, err)
	}
	return string(text), nil
}

func writeCache(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := w.Write([]byte(text)); err != nil {
		w.Close()
		return fmt.Errorf("compress corpus: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flush corpus cache: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Paragraphs chunks wiki-style text into calibration samples. Blank lines and
// section headers (lines starting with '=') are dropped; consecutive content
// lines accumulate until the buffer exceeds minParagraphWords, then flush.
// At most limit samples are returned and a trailing short buffer is discarded.
func Paragraphs(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	paragraphs := make([]string, 0, limit)
	var buf strings.Builder
	words := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		buf.WriteString(line)
		buf.WriteString(" ")
		words += len(strings.Fields(line))
		if words > minParagraphWords {
			paragraphs = append(paragraphs, strings.TrimSpace(buf.String()))
			buf.Reset()
			words = 0
			if len(paragraphs) >= limit {
				break
			}
		}
	}
	log.Debug().Msgf("chunked corpus into %d paragraphs (limit %d)", len(paragraphs), limit)
	return paragraphs
}
