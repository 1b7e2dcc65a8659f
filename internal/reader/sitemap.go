package reader

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// sitemapURLSet mirrors the <urlset> root of a standard XML sitemap.
type sitemapURLSet struct {
	XMLName xml.Name      `xml:"urlset"`
	URLs    []sitemapURL  `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// sitemapIndex mirrors a sitemap index file referencing child sitemaps.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// EnumerateSitemap recursively resolves a sitemap.xml (or sitemap index)
// URL into the flat list of page URLs it ultimately references, following
// nested sitemap index files up to maxDepth levels to avoid infinite loops
// on a misconfigured site.
func EnumerateSitemap(ctx context.Context, fetcher *Fetcher, sitemapURL string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("reader/sitemap: max recursion depth reached at %s", sitemapURL)
	}
	if !strings.HasSuffix(strings.ToLower(sitemapURL), ".xml") {
		return nil, fmt.Errorf("reader/sitemap: not an xml sitemap: %s", sitemapURL)
	}

	body, _, _, err := fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		var all []string
		for _, child := range idx.Sitemaps {
			urls, err := EnumerateSitemap(ctx, fetcher, child.Loc, maxDepth-1)
			if err != nil {
				continue // a broken child sitemap is skipped, not fatal to the crawl
			}
			all = append(all, urls...)
		}
		return all, nil
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("reader/sitemap: parse %s: %w", sitemapURL, err)
	}
	out := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		out = append(out, u.Loc)
	}
	return out, nil
}
