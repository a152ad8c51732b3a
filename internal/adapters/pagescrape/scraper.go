// Package pagescrape reads preview metadata (title, description, images)
// from listing pages.
package pagescrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"castro_guide/internal/adapters/httpx"
	"castro_guide/internal/domain"
)

const (
	maxPageBytes = 2 << 20
	maxImages    = 12
)

type Scraper struct {
	http *httpx.Client
}

func New(rps float64) *Scraper {
	return &Scraper{http: httpx.New("pagescrape", httpx.Options{RPS: rps, Attempts: 2})}
}

// Scrape fetches rawURL and extracts its preview metadata. Image URLs are
// made absolute against the page URL.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (domain.PageMeta, error) {
	base, err := url.Parse(rawURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return domain.PageMeta{}, fmt.Errorf("pagescrape: invalid url %q", rawURL)
	}
	body, err := s.http.Fetch(ctx, httpx.Call{
		URL:      rawURL,
		Endpoint: "page",
		Header: http.Header{
			"Accept":          {"text/html,application/xhtml+xml"},
			"Accept-Language": {"pt-BR,pt;q=0.9"},
			"User-Agent":      {"Mozilla/5.0 (compatible; castro-guide/1.0)"},
		},
	}, maxPageBytes)
	if err != nil {
		return domain.PageMeta{}, err
	}
	return Parse(body, base)
}

// Parse extracts metadata from an HTML document. og: properties win over
// plain meta tags; <img> sources are used after og:image and image_src.
func Parse(body []byte, base *url.URL) (domain.PageMeta, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return domain.PageMeta{}, fmt.Errorf("pagescrape: parse: %w", err)
	}

	var (
		meta       domain.PageMeta
		ogTitle    string
		ogDesc     string
		plainDesc  string
		ogImages   []string
		linkImages []string
		imgs       []string
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if meta.Title == "" && n.FirstChild != nil {
					meta.Title = collapse(n.FirstChild.Data)
				}
			case atom.Meta:
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				content := collapse(attr(n, "content"))
				switch key {
				case "og:title":
					ogTitle = content
				case "og:description":
					ogDesc = content
				case "description":
					plainDesc = content
				case "og:image", "og:image:url", "og:image:secure_url", "twitter:image":
					ogImages = append(ogImages, content)
				}
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "image_src") {
					linkImages = append(linkImages, attr(n, "href"))
				}
			case atom.Img:
				src := attr(n, "src")
				if src == "" {
					src = attr(n, "data-src")
				}
				imgs = append(imgs, src)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if ogTitle != "" {
		meta.Title = ogTitle
	}
	meta.Description = ogDesc
	if meta.Description == "" {
		meta.Description = plainDesc
	}
	meta.Images = absolute(base, maxImages, ogImages, linkImages, imgs)
	return meta, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

// absolute resolves, dedupes and caps image URLs, skipping data URIs and
// tracking pixels.
func absolute(base *url.URL, limit int, lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lists {
		for _, raw := range l {
			if raw == "" || strings.HasPrefix(raw, "data:") {
				continue
			}
			ref, err := url.Parse(raw)
			if err != nil {
				continue
			}
			u := ref
			if base != nil {
				u = base.ResolveReference(ref)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				continue
			}
			s := u.String()
			lower := strings.ToLower(s)
			if strings.Contains(lower, "pixel") || strings.HasSuffix(lower, ".svg") {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
