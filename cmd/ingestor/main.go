package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"castro_guide/internal/adapters/observability"
	"castro_guide/internal/shared"
)

const usage = `usage: ingestor <command> [flags]

commands:
  crawl          Google Maps crawler -> staging database -> places.json
  expand         grow places.json with Google Places text search
  enrich         fill details from Google Places (phone, site, hours, photos)
  extract        conservative merge from the Apify Maps extractor
  localbusiness  merge RapidAPI local-business results
  merged         TripAdvisor listings geocoded through OpenStreetMap
  subcategories  derive missing subcategory labels

run "ingestor <command> -h" for the flags of a command`

// usageExit reports whether args only ask for the usage text and the exit
// code to leave with: 0 when help was requested, 2 when no command was given.
func usageExit(args []string) (int, bool) {
	if len(args) < 2 {
		return 2, true
	}
	switch args[1] {
	case "-h", "-help", "--help", "help":
		return 0, true
	}
	return 0, false
}

func main() {
	if code, ok := usageExit(os.Args); ok {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(code)
	}
	name, args := os.Args[1], os.Args[2:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", name, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel).With().
		Str("command", name).
		Str("run_id", uuid.NewString()).
		Logger()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	log.Info().Str("data_dir", cfg.DataDir).Str("staging", cfg.Staging).Int("workers", cfg.Workers).
		Msg("ingestor starting")

	start := time.Now()
	err = cmd(ctx, cfg, args)
	observability.ObserveRun(name, err, time.Since(start))
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var ce *shared.ConfigError
		if errors.As(err, &ce) {
			log.Error().Str("key", ce.Key).Msg(ce.Reason)
			os.Exit(2)
		}
		log.Error().Err(err).Str("error_type", observability.LabelErr(err)).Msg("ingestion failed")
		os.Exit(1)
	}
	log.Info().Msg("ingestion completed")
}
