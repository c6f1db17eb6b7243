// Package uci speaks the Universal Chess Interface in both directions:
// Session and Adapter drive an external engine process, and Server exposes
// the local engine to UCI front-ends.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
)

// EngineName is reported in the "id name" line.
const EngineName = "chessbot"

// Server answers UCI commands read from in with the local engine, writing
// replies to out.
type Server struct {
	engine *engine.Engine
	in     io.Reader
	out    io.Writer
	outMu  sync.Mutex
	log    zerolog.Logger

	game     *board.Game
	skill    int
	maxDepth int

	searchDone chan struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the diagnostic logger. Protocol output never goes
// through it.
func WithServerLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithMaxDepth caps the depth of any "go" command.
func WithMaxDepth(d int) ServerOption {
	return func(s *Server) { s.maxDepth = d }
}

// NewServer returns a server at the initial position and default skill.
func NewServer(eng *engine.Engine, in io.Reader, out io.Writer, opts ...ServerOption) *Server {
	g, _ := board.NewGame("")
	s := &Server{
		engine:   eng,
		in:       in,
		out:      out,
		log:      zerolog.Nop(),
		game:     g,
		skill:    engine.DefaultSkill,
		maxDepth: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes commands until "quit" or the end of input, then waits for
// any running search to report.
func (s *Server) Run() error {
	sc := bufio.NewScanner(s.in)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		s.log.Debug().Str("cmd", cmd).Strs("args", args).Msg("uci in")

		switch cmd {
		case "uci":
			s.send("id name %s", EngineName)
			s.send("id author chessbot authors")
			s.send("option name Skill Level type spin default %d min 0 max %d", engine.DefaultSkill, engine.MaxSkill)
			s.send("uciok")
		case "isready":
			s.wait()
			s.send("readyok")
		case "ucinewgame":
			s.wait()
			s.game, _ = board.NewGame("")
		case "setoption":
			s.handleSetOption(args)
		case "position":
			s.wait()
			s.handlePosition(args)
		case "go":
			s.handleGo(args)
		case "stop":
			s.wait()
		case "quit":
			s.wait()
			return nil
		case "d":
			pos := s.game.Position()
			s.send("%s", strings.TrimRight(pos.String(), "\n"))
			s.send("Fen: %s", s.game.FEN())
		case "perft":
			s.handlePerft(args)
		default:
			s.send("info string unknown command %s", cmd)
		}
	}
	s.wait()
	return sc.Err()
}

func (s *Server) send(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := fmt.Fprintf(s.out, format+"\n", args...); err != nil {
		s.log.Debug().Err(err).Msg("uci write failed")
	}
}

// wait blocks until the running search, if any, has printed bestmove.
// There is no way to interrupt a search, so "stop" waits as well.
func (s *Server) wait() {
	if s.searchDone != nil {
		<-s.searchDone
		s.searchDone = nil
	}
}

// skillDepth maps the Skill Level option to a depth cap: 1 at skill 0
// up to 5 at skill 20.
func (s *Server) skillDepth() int {
	return min(1+s.skill/5, s.maxDepth)
}

func (s *Server) handleSetOption(args []string) {
	var name, value []string
	var cur *[]string
	for _, a := range args {
		switch a {
		case "name":
			cur = &name
		case "value":
			cur = &value
		default:
			if cur != nil {
				*cur = append(*cur, a)
			}
		}
	}
	switch strings.ToLower(strings.Join(name, " ")) {
	case "skill level":
		n, err := strconv.Atoi(strings.Join(value, ""))
		if err != nil {
			s.send("info string bad skill level %q", strings.Join(value, " "))
			return
		}
		s.skill = min(max(n, 0), engine.MaxSkill)
	default:
		s.send("info string unsupported option %s", strings.Join(name, " "))
	}
}

// handlePosition accepts "startpos" or "fen <fen>", optionally followed by
// "moves" and a list of moves. On any error the previous position is kept.
func (s *Server) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	movesAt := len(args)
	for i, a := range args {
		if a == "moves" {
			movesAt = i
			break
		}
	}

	var fen string
	switch args[0] {
	case "startpos":
		fen = board.StartFEN
	case "fen":
		fen = strings.Join(args[1:movesAt], " ")
	default:
		s.send("info string bad position command")
		return
	}
	g, err := board.NewGame(fen)
	if err != nil {
		s.send("info string %v", err)
		return
	}
	if movesAt < len(args) {
		for _, tok := range args[movesAt+1:] {
			mi, err := g.ResolveMove(tok)
			if err == nil {
				err = g.ApplyMove(mi.Move)
			}
			if err != nil {
				s.send("info string bad move %s: %v", tok, err)
				return
			}
		}
	}
	s.game = g
}

func (s *Server) handleGo(args []string) {
	s.wait()
	depth := 0
	var moveTime time.Duration
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "depth":
			depth, _ = strconv.Atoi(args[i+1])
			i++
		case "movetime":
			ms, _ := strconv.Atoi(args[i+1])
			moveTime = time.Duration(ms) * time.Millisecond
			i++
		}
	}
	limit := s.skillDepth()
	if depth <= 0 || depth > limit {
		depth = limit
	}

	g := s.game.Clone()
	done := make(chan struct{})
	s.searchDone = done
	go func() {
		defer close(done)
		res, err := s.engine.Search(g, depth)
		if err != nil {
			s.log.Error().Err(err).Msg("search failed")
			s.send("info string search failed: %v", err)
			s.send("bestmove 0000")
			return
		}
		if moveTime > 0 && res.Elapsed > moveTime {
			s.log.Debug().Dur("movetime", moveTime).Dur("elapsed", res.Elapsed).Msg("search overran movetime")
		}
		if !res.Found {
			s.send("bestmove 0000")
			return
		}
		s.send("info depth %d score %s nodes %d time %d pv %s",
			res.Depth, res.Score.UCI(g.SideToMove()), res.Nodes+res.QNodes, res.Elapsed.Milliseconds(), res.Move)
		s.send("bestmove %s", res.Move)
	}()
}

func (s *Server) handlePerft(args []string) {
	s.wait()
	depth := 1
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}
	start := time.Now()
	n, err := s.engine.Perft(s.game.Clone(), depth)
	if err != nil {
		s.send("info string perft: %v", err)
		return
	}
	s.send("info string perft %d nodes %d time %d", depth, n, time.Since(start).Milliseconds())
}
