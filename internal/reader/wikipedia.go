package reader

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not security
	"fmt"
	"strings"

	"github.com/raggify/raggify-go/internal/metadata"
)

// WikipediaReader specializes HTMLReader for Wikipedia article URLs: it
// strips the MediaWiki chrome by fetching the page's plain-text action API
// endpoint instead of converting the rendered HTML, then reuses the
// embedded HTMLReader's asset crawl for article images.
type WikipediaReader struct {
	*HTMLReader
}

// NewWikipediaReader wraps an HTMLReader configured for Wikipedia crawling.
func NewWikipediaReader(base *HTMLReader) *WikipediaReader {
	return &WikipediaReader{HTMLReader: base}
}

// SupportsURL reports whether target looks like a Wikipedia article URL
// (any language subdomain of wikipedia.org) — used by the web loader to
// route to this reader ahead of the generic HTML reader.
func SupportsURL(target string) bool {
	return strings.Contains(target, ".wikipedia.org/wiki/")
}

func (r *WikipediaReader) Read(ctx context.Context, target string) ([]metadata.Document, error) {
	apiURL, err := wikipediaExtractAPIURL(target)
	if err != nil {
		return nil, err
	}

	body, _, _, err := r.fetcher.Fetch(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	docs := []metadata.Document{{
		Text: string(body),
		Hash: fmt.Sprintf("%x", md5.Sum(body)),
		Meta: metadata.BasicMetaData{
			URL:      target,
			FileType: "text/plain",
		},
	}}

	if !r.cfg.LoadAssets {
		return docs, nil
	}

	rawHTML, _, pageURL, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		return docs, nil
	}
	assetDocs, err := r.loadAssets(ctx, pageURL, string(rawHTML))
	if err != nil {
		return docs, nil
	}
	return append(docs, assetDocs...), nil
}

// wikipediaExtractAPIURL turns an article URL like
// https://en.wikipedia.org/wiki/Go_(programming_language) into the
// action=raw plain-text export URL for the same language and title.
func wikipediaExtractAPIURL(target string) (string, error) {
	const marker = ".wikipedia.org/wiki/"
	idx := strings.Index(target, marker)
	if idx < 0 {
		return "", fmt.Errorf("reader/wikipedia: not a wikipedia article URL: %s", target)
	}
	schemeAndLang := target[:idx]
	langStart := strings.LastIndex(schemeAndLang, "//") + 2
	lang := schemeAndLang[langStart:]
	title := target[idx+len(marker):]

	return fmt.Sprintf("https://%s.wikipedia.org/w/index.php?title=%s&action=raw", lang, title), nil
}
