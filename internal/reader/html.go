package reader

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not security
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/raggify/raggify-go/internal/logging"
	"github.com/raggify/raggify-go/internal/metadata"
)

// HTMLReaderConfig controls asset-crawl behavior shared by DefaultHTMLReader
// and WikipediaReader.
type HTMLReaderConfig struct {
	LoadAssets     bool
	SameOrigin     bool
	MaxAssetBytes  int64
	AllowedAssetExts []string // lowercase, with dot, e.g. ".png", ".jpg"
	AssetLimit     int
}

var cacheBusterRe = regexp.MustCompile(`(\.(?:svg|png|jpe?g|webp))\?[^\s"'<>]+`)

// HTMLReader fetches a page, converts its body to markdown text, and
// optionally crawls same-origin (or any-origin) asset links matching the
// configured extensions, downloading each exactly once per asset_url_cache.
type HTMLReader struct {
	fetcher *Fetcher
	assets  *AssetURLCache
	cfg     HTMLReaderConfig
}

// NewHTMLReader builds the default HTML reader.
func NewHTMLReader(fetcher *Fetcher, assets *AssetURLCache, cfg HTMLReaderConfig) *HTMLReader {
	if cfg.AssetLimit <= 0 {
		cfg.AssetLimit = 20
	}
	return &HTMLReader{fetcher: fetcher, assets: assets, cfg: cfg}
}

func (r *HTMLReader) Read(ctx context.Context, target string) ([]metadata.Document, error) {
	body, _, finalURL, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	rawHTML := string(body)
	sanitized := cacheBusterRe.ReplaceAllString(rawHTML, "$1")

	md, err := htmltomarkdown.ConvertString(sanitized)
	if err != nil {
		return nil, fmt.Errorf("reader/html: convert %s to markdown: %w", target, err)
	}

	// Web sources have no filesystem mtime; FileLastModAt/FileCreatedAt
	// stay at their stable zero value and content identity rides on Hash
	// instead, so re-fetching an unchanged page keeps the same ref_doc_id.
	docs := []metadata.Document{{
		Text: md,
		Hash: fmt.Sprintf("%x", md5.Sum([]byte(md))),
		Meta: metadata.BasicMetaData{
			URL:      finalURL,
			FileType: "text/html",
		},
	}}

	if !r.cfg.LoadAssets {
		return docs, nil
	}

	assetDocs, err := r.loadAssets(ctx, finalURL, rawHTML)
	if err != nil {
		return docs, nil // reader failure policy: log+skip assets, keep the text document
	}
	return append(docs, assetDocs...), nil
}

func (r *HTMLReader) loadAssets(ctx context.Context, baseURL, rawHTML string) ([]metadata.Document, error) {
	links := gatherAssetLinks(rawHTML, baseURL, r.cfg.SameOrigin, r.cfg.AllowedAssetExts, r.cfg.AssetLimit)

	var docs []metadata.Document
	for _, link := range links {
		if r.assets.SeenOrMark(link) {
			continue
		}
		body, contentType, _, err := r.fetcher.Fetch(ctx, link)
		if err != nil {
			// Per-asset failures are logged and skipped here, not fatal.
			logging.FromContext(ctx).Warn("reader/html: skipping asset", "url", link, "error", err)
			continue
		}
		if r.cfg.MaxAssetBytes > 0 && int64(len(body)) > r.cfg.MaxAssetBytes {
			continue
		}
		if !strings.HasPrefix(contentType, "image/") {
			continue
		}

		tmpPath, err := writeAssetTempFile(link, body)
		if err != nil {
			continue
		}
		docs = append(docs, metadata.Document{
			Hash: fmt.Sprintf("%x", md5.Sum(body)),
			Meta: metadata.BasicMetaData{
				FilePath:     tmpPath,
				FileType:     contentType,
				TempFilePath: tmpPath,
				BaseSource:   baseURL,
				URL:          link,
			},
		})
	}
	return docs, nil
}

// gatherAssetLinks walks <img src>, <a href>, and <source srcset> elements,
// resolving relative URLs against base and filtering by origin and
// extension, mirroring the same-origin/allowed-ext gathering rule.
func gatherAssetLinks(rawHTML, baseURL string, sameOrigin bool, allowedExts []string, limit int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(raw string) {
		if raw == "" || len(out) >= limit {
			return
		}
		resolved, err := base.Parse(raw)
		if err != nil {
			return
		}
		abs := resolved.String()
		if seen[abs] {
			return
		}
		if sameOrigin && (resolved.Scheme != base.Scheme || resolved.Host != base.Host) {
			return
		}
		ext := strings.ToLower(path.Ext(resolved.Path))
		if !extAllowed(ext, allowedExts) {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := tokenizer.Token()
		switch tok.Data {
		case "img":
			add(attr(tok, "src"))
		case "a":
			add(attr(tok, "href"))
		case "source":
			if ss := attr(tok, "srcset"); ss != "" {
				cand := strings.Fields(strings.Split(ss, ",")[0])
				if len(cand) > 0 {
					add(cand[0])
				}
			}
		}
	}
	return out
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
