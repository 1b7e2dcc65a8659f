package reader

import (
	"context"
	"strings"

	"github.com/raggify/raggify-go/internal/metadata"
)

// WebLoader is the top-level URL loader (spec §4.6's second of "two
// top-level loaders (file/html)"): it routes a URL to the Wikipedia reader,
// recursively enumerates sitemaps, or falls through to the default HTML
// reader.
type WebLoader struct {
	fetcher   *Fetcher
	html      *HTMLReader
	wikipedia *WikipediaReader
	// SitemapMaxDepth bounds recursive sitemap-index following.
	SitemapMaxDepth int
}

// NewWebLoader builds a WebLoader from the already-constructed HTML and
// Wikipedia readers, which share the same Fetcher and AssetURLCache.
func NewWebLoader(fetcher *Fetcher, html *HTMLReader, wikipedia *WikipediaReader) *WebLoader {
	return &WebLoader{fetcher: fetcher, html: html, wikipedia: wikipedia, SitemapMaxDepth: 5}
}

func (l *WebLoader) Read(ctx context.Context, target string) ([]metadata.Document, error) {
	if strings.HasSuffix(strings.ToLower(target), ".xml") {
		return l.readSitemap(ctx, target)
	}
	if SupportsURL(target) {
		return l.wikipedia.Read(ctx, target)
	}
	return l.html.Read(ctx, target)
}

// readSitemap enumerates every page URL referenced by target (a sitemap or
// sitemap index) and reads each one, concatenating their documents. A page
// that fails to fetch is skipped, per the reader failure policy.
func (l *WebLoader) readSitemap(ctx context.Context, target string) ([]metadata.Document, error) {
	pages, err := EnumerateSitemap(ctx, l.fetcher, target, l.SitemapMaxDepth)
	if err != nil {
		return nil, err
	}

	var docs []metadata.Document
	for _, page := range pages {
		pageDocs, err := l.Read(ctx, page)
		if err != nil {
			continue
		}
		docs = append(docs, pageDocs...)
	}
	return docs, nil
}
