package main

import (
	"context"
	"errors"
	"flag"
	"testing"

	"castro_guide/internal/domain"
	"castro_guide/internal/shared"
)

func TestSplitList(t *testing.T) {
	got := splitList(" restaurantes em Goiânia | cafés ,, bares ")
	if len(got) != 3 || got[0] != "restaurantes em Goiânia" || got[2] != "bares" {
		t.Fatalf("unexpected split: %q", got)
	}
	if splitList("") != nil {
		t.Fatalf("empty input must yield nil")
	}
}

func TestCrawlQueries_FiltersByCategory(t *testing.T) {
	all, err := crawlQueries(nil)
	if err != nil || len(all) != len(shared.CrawlQueries) {
		t.Fatalf("default must keep every query: %d %v", len(all), err)
	}

	got, err := crawlQueries([]string{"culture", "nature"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected some queries")
	}
	for _, q := range got {
		if q.Category != domain.Culture && q.Category != domain.Nature {
			t.Fatalf("unexpected query %+v", q)
		}
	}

	if _, err := crawlQueries([]string{"bogus"}); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestCommands_MissingCredentialsAreConfigErrors(t *testing.T) {
	cfg := shared.Defaults()
	for _, name := range []string{"expand", "enrich", "extract", "localbusiness", "merged"} {
		err := commands[name](context.Background(), cfg, nil)
		var ce *shared.ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: expected ConfigError, got %v", name, err)
		}
	}
}

func TestCommands_RejectStrayArguments(t *testing.T) {
	err := commands["subcategories"](context.Background(), shared.Defaults(), []string{"extra"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := commands["crawl"](context.Background(), shared.Defaults(), []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestUsageExit(t *testing.T) {
	cases := []struct {
		args []string
		code int
		ok   bool
	}{
		{[]string{"ingestor"}, 2, true},
		{[]string{"ingestor", "-h"}, 0, true},
		{[]string{"ingestor", "--help"}, 0, true},
		{[]string{"ingestor", "help"}, 0, true},
		{[]string{"ingestor", "crawl", "-h"}, 0, false},
		{[]string{"ingestor", "bogus"}, 0, false},
	}
	for _, c := range cases {
		code, ok := usageExit(c.args)
		if code != c.code || ok != c.ok {
			t.Fatalf("usageExit(%q) = %d,%v want %d,%v", c.args, code, ok, c.code, c.ok)
		}
	}
}
