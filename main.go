// Command chessbot picks chess moves with a local alpha-beta search or an
// external UCI engine, plays itself, or serves move selection over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessbot/internal/ai"
	"github.com/hailam/chessbot/internal/config"
	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/httpapi"
	"github.com/hailam/chessbot/internal/logging"
	"github.com/hailam/chessbot/internal/storage"
	"github.com/hailam/chessbot/internal/uci"
)

var (
	fenFlag        = flag.String("fen", "", "position to move in (default: the initial position)")
	difficultyFlag = flag.String("difficulty", "", "easy, moderate, hard, stockfish or stockfish_N (default: last used)")
	selfplayFlag   = flag.Int("selfplay", 0, "play up to N plies against itself and print the game as PGN")
	pgnFlag        = flag.String("pgn", "", "also write the self-play game to this file")
	serveFlag      = flag.Bool("serve", false, "serve the HTTP API")
	addrFlag       = flag.String("addr", "", "HTTP listen address (default from config)")
	configFlag     = flag.String("config", "", "config file (default: chessbot/config.json in the XDG config dirs)")
	initConfigFlag = flag.Bool("init-config", false, "write the effective config to the XDG config dir and exit")
	noStoreFlag    = flag.Bool("nostore", false, "do not open the database")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chessbot:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configFlag != "" {
		return config.LoadFile(*configFlag)
	}
	return config.Load()
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *initConfigFlag {
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *storage.Storage
	if !*noStoreFlag {
		store, err = storage.NewStorage(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	label, err := difficulty(store)
	if err != nil {
		return err
	}

	worker, closeEngine := buildWorker(cfg, store, log)
	defer closeEngine()

	g, ctx := errgroup.WithContext(ctx)
	workerCtx, stopWorker := context.WithCancel(ctx)
	g.Go(func() error { return worker.Run(workerCtx) })
	g.Go(func() error {
		defer stopWorker()
		switch {
		case *serveFlag:
			addr := cfg.HTTP.Addr
			if *addrFlag != "" {
				addr = *addrFlag
			}
			var history httpapi.History
			if store != nil {
				history = store
			}
			return httpapi.New(worker, history, logging.Component(log, "http")).Serve(ctx, addr)
		case *selfplayFlag > 0:
			return playSelf(ctx, worker, store, selfPlay{
				FEN:        *fenFlag,
				Difficulty: label,
				MaxPlies:   *selfplayFlag,
				PGNPath:    *pgnFlag,
			}, os.Stdout)
		default:
			return selectOnce(ctx, worker, *fenFlag, label, os.Stdout)
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if store != nil && *difficultyFlag != "" {
		if err := store.SavePreferences(&storage.Preferences{Difficulty: label}); err != nil {
			log.Warn().Err(err).Msg("save preferences")
		}
	}
	return nil
}

// difficulty is the -difficulty flag, else the stored preference.
func difficulty(store *storage.Storage) (string, error) {
	if *difficultyFlag != "" {
		return *difficultyFlag, nil
	}
	if store == nil {
		return engine.LabelModerate, nil
	}
	prefs, err := store.LoadPreferences()
	if err != nil {
		return "", err
	}
	return prefs.Difficulty, nil
}

// buildWorker wires the engine, the optional external engine and the
// recorder. The returned func shuts the external engine down.
func buildWorker(cfg *config.Config, store *storage.Storage, log zerolog.Logger) (*ai.Worker, func()) {
	engOpts := []engine.Option{
		engine.WithEvalParams(cfg.EvalParams()),
		engine.WithOrderParams(cfg.OrderParams()),
		engine.WithLogger(logging.Component(log, "engine")),
	}
	if cfg.Search.Seed != 0 {
		engOpts = append(engOpts, engine.WithSeed(cfg.Search.Seed))
	}

	coordOpts := []ai.CoordinatorOption{
		ai.WithFallbackDepth(cfg.Search.FallbackDepth),
		ai.WithLogger(logging.Component(log, "coordinator")),
	}
	closeEngine := func() {}
	if cfg.Engine.Path != "" {
		adapter := uci.NewProcessAdapter(cfg.Engine.Path, cfg.Engine.Args, logging.Component(log, "uci"),
			uci.WithHandshakeTimeout(cfg.Engine.HandshakeTimeout()),
			uci.WithGrace(cfg.Engine.Grace()),
		)
		coordOpts = append(coordOpts, ai.WithExternal(adapter))
		closeEngine = func() {
			if err := adapter.Close(); err != nil {
				log.Warn().Err(err).Msg("shut down external engine")
			}
		}
	}

	workerOpts := []ai.WorkerOption{ai.WithWorkerLogger(logging.Component(log, "worker"))}
	if store != nil {
		workerOpts = append(workerOpts, ai.WithRecorder(store))
	}
	coord := ai.NewCoordinator(engine.New(engOpts...), coordOpts...)
	return ai.NewWorker(coord, workerOpts...), closeEngine
}

func selectOnce(ctx context.Context, worker *ai.Worker, fen, label string, w io.Writer) error {
	resp, err := worker.Do(ctx, ai.Request{FEN: fen, Difficulty: label})
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return resp.Err
	}
	sel := resp.Selection
	if !sel.Found {
		fmt.Fprintf(w, "no move: %s\n", sel.Outcome)
		return nil
	}
	fmt.Fprintf(w, "bestmove %s\n", resp.Move)
	src := string(sel.Backend)
	if sel.Fallback {
		src += " (fallback: " + sel.FallbackReason + ")"
	}
	fmt.Fprintf(w, "info %s depth %d score %s time %dms\n", src, sel.Depth, sel.Score, sel.Elapsed.Milliseconds())
	return nil
}
