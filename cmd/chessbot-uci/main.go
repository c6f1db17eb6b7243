// Command chessbot-uci exposes the local search engine over UCI on
// stdin and stdout, for use with chess GUIs.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessbot/internal/config"
	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/logging"
	"github.com/hailam/chessbot/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	maxDepth   = flag.Int("maxdepth", 5, "deepest search a go command may ask for")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chessbot-uci:", err)
		def := config.Default()
		cfg = &def
	}
	// stdout carries the protocol, so diagnostics go to stderr.
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chessbot-uci:", err)
		os.Exit(1)
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	opts := []engine.Option{
		engine.WithEvalParams(cfg.EvalParams()),
		engine.WithOrderParams(cfg.OrderParams()),
		engine.WithLogger(logging.Component(log, "engine")),
	}
	if cfg.Search.Seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Search.Seed))
	}
	srv := uci.NewServer(engine.New(opts...), os.Stdin, os.Stdout,
		uci.WithServerLogger(logging.Component(log, "uci")),
		uci.WithMaxDepth(*maxDepth),
	)
	if err := srv.Run(); err != nil {
		log.Error().Err(err).Msg("reading commands")
	}
}
