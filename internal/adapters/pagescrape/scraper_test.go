package pagescrape_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"castro_guide/internal/adapters/httpx"
	"castro_guide/internal/adapters/pagescrape"
)

const listing = `<!doctype html>
<html><head>
<title>  Museu   Zoroastro Artiaga - TripAdvisor </title>
<meta name="description" content="plain description">
<meta property="og:description" content="Acervo sobre a   história de Goiás.">
<meta property="og:image" content="https://cdn.example/og.jpg">
<link rel="image_src" href="/img/link.jpg">
</head><body>
<img src="data:image/gif;base64,R0lGOD">
<img src="/img/a.jpg">
<img data-src="img/b.jpg">
<img src="https://cdn.example/og.jpg">
<img src="/tracking/pixel.gif">
</body></html>`

func TestParse_PrefersOpenGraph(t *testing.T) {
	base, _ := url.Parse("https://www.tripadvisor.example/Attraction-1/page.html")
	meta, err := pagescrape.Parse([]byte(listing), base)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if meta.Title != "Museu Zoroastro Artiaga - TripAdvisor" {
		t.Fatalf("title = %q", meta.Title)
	}
	if meta.Description != "Acervo sobre a história de Goiás." {
		t.Fatalf("description = %q", meta.Description)
	}
	want := []string{
		"https://cdn.example/og.jpg",
		"https://www.tripadvisor.example/img/link.jpg",
		"https://www.tripadvisor.example/img/a.jpg",
		"https://www.tripadvisor.example/Attraction-1/img/b.jpg",
	}
	if len(meta.Images) != len(want) {
		t.Fatalf("images = %v", meta.Images)
	}
	for i := range want {
		if meta.Images[i] != want[i] {
			t.Fatalf("image %d = %s, want %s", i, meta.Images[i], want[i])
		}
	}
}

func TestParse_FallsBackToMetaDescription(t *testing.T) {
	meta, err := pagescrape.Parse([]byte(`<html><head><meta name="Description" content="só texto"></head></html>`), nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if meta.Description != "só texto" || len(meta.Images) != 0 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestScrape_FetchesPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listing))
	}))
	defer ts.Close()

	s := pagescrape.New(100)
	meta, err := s.Scrape(context.Background(), ts.URL+"/Attraction-1/page.html")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(meta.Images) != 4 || meta.Images[2] != ts.URL+"/img/a.jpg" {
		t.Fatalf("images = %v", meta.Images)
	}

	if _, err := s.Scrape(context.Background(), ts.URL+"/gone"); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Scrape(context.Background(), "ftp://nope"); err == nil {
		t.Fatalf("expected invalid url error")
	}
}
