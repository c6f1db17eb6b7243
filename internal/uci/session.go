package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
)

var (
	ErrSessionFailed = errors.New("uci: engine session failed")
	ErrTimeout       = errors.New("uci: engine did not answer in time")
	ErrClosed        = errors.New("uci: session closed")
	ErrProtocol      = errors.New("uci: unexpected engine reply")
)

// State is the lifecycle state of a Session.
type State int

const (
	Uninitialized State = iota
	AwaitingHandshake
	Ready
	Searching
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AwaitingHandshake:
		return "awaiting-handshake"
	case Ready:
		return "ready"
	case Searching:
		return "searching"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Conn is a running engine: writes are commands, reads are its output.
// Close must terminate the engine and unblock pending reads.
type Conn interface {
	io.ReadWriteCloser
}

// Launcher starts a fresh engine.
type Launcher func(ctx context.Context) (Conn, error)

type processConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
}

// Read closes stdout once the engine's output ends.
func (p *processConn) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if err != nil {
		p.stdout.Close()
	}
	return n, err
}

func (p *processConn) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close closes stdin and gives the process a second to exit before
// killing it. The reader keeps draining stdout until EOF.
func (p *processConn) Close() error {
	p.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(time.Second):
		// A child that inherited stdout can keep it open past the kill.
		defer p.stdout.Close()
		if err := p.cmd.Process.Kill(); err != nil {
			return err
		}
		<-done
		return nil
	}
}

// ProcessLauncher runs the executable at path as the engine.
func ProcessLauncher(path string, args ...string) Launcher {
	return func(ctx context.Context) (Conn, error) {
		cmd := exec.Command(path, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		// Wait closes pipes it creates, so stdout is a pipe we own.
		stdout, w, err := os.Pipe()
		if err != nil {
			stdin.Close()
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		cmd.Stdout = w
		err = cmd.Start()
		w.Close()
		if err != nil {
			stdin.Close()
			stdout.Close()
			return nil, fmt.Errorf("start %s: %w", path, err)
		}
		return &processConn{cmd: cmd, stdin: stdin, stdout: stdout}, nil
	}
}

// SearchRequest is one external search.
type SearchRequest struct {
	FEN    string
	Skill  int
	Limits engine.Limits
}

type reply struct {
	line string
	err  error
}

// pending is the single outstanding exchange. The reader goroutine hands
// it the first line starting with expect.
type pending struct {
	expect string
	done   chan reply
}

// Session owns one external engine at a time. Requests are serialized:
// a second caller queues until the first finishes or its context ends.
// A session that failed relaunches its engine on the next request.
type Session struct {
	launch           Launcher
	log              zerolog.Logger
	handshakeTimeout time.Duration
	grace            time.Duration

	slot chan struct{}

	mu    sync.Mutex
	state State
	conn  Conn
	wait  *pending
	name  string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithHandshakeTimeout bounds each of the uci and isready exchanges.
func WithHandshakeTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.handshakeTimeout = d }
}

// WithGrace is added to the move time when waiting for bestmove.
func WithGrace(d time.Duration) SessionOption {
	return func(s *Session) { s.grace = d }
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// NewSession returns an uninitialized session; nothing is launched until
// the first request.
func NewSession(launch Launcher, opts ...SessionOption) *Session {
	s := &Session{
		launch:           launch,
		log:              zerolog.Nop(),
		handshakeTimeout: 5 * time.Second,
		grace:            2 * time.Second,
		slot:             make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Name is the engine's "id name", empty before the first handshake.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Closed {
		s.state = st
	}
}

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() { <-s.slot }

// EnsureStarted launches the engine and completes the handshake unless the
// session is already Ready.
func (s *Session) EnsureStarted(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return s.start(ctx)
}

// start requires the slot.
func (s *Session) start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Ready:
		s.mu.Unlock()
		return nil
	case Closed:
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.conn
	s.conn = nil
	s.mu.Unlock()
	if old != nil {
		s.log.Info().Msg("relaunching failed engine")
		old.Close()
	}

	conn, err := s.launch(ctx)
	if err != nil {
		s.setState(Failed)
		return fmt.Errorf("%w: launch: %v", ErrSessionFailed, err)
	}
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	s.conn = conn
	s.state = AwaitingHandshake
	s.mu.Unlock()
	go s.readLoop(conn)

	if _, err := s.exchange(ctx, conn, "uciok", s.handshakeTimeout, "uci"); err != nil {
		s.fail(conn, err)
		return fmt.Errorf("%w: handshake: %v", ErrSessionFailed, err)
	}
	if _, err := s.exchange(ctx, conn, "readyok", s.handshakeTimeout, "isready"); err != nil {
		s.fail(conn, err)
		return fmt.Errorf("%w: handshake: %v", ErrSessionFailed, err)
	}
	s.setState(Ready)
	s.log.Info().Str("engine", s.Name()).Msg("engine ready")
	return nil
}

// Search runs one search and returns the engine's bestmove token. On a
// timeout the engine is sent "stop" and the session is marked Failed.
func (s *Session) Search(ctx context.Context, req SearchRequest) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()
	if err := s.start(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	s.setState(Searching)

	cmds := []string{
		fmt.Sprintf("setoption name Skill Level value %d", req.Skill),
		"position fen " + req.FEN,
		fmt.Sprintf("go depth %d movetime %d", req.Limits.Depth, req.Limits.MoveTime.Milliseconds()),
	}
	start := time.Now()
	line, err := s.exchange(ctx, conn, "bestmove", req.Limits.MoveTime+s.grace, cmds...)
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			io.WriteString(conn, "stop\n")
		}
		s.fail(conn, err)
		s.log.Warn().Err(err).Str("fen", req.FEN).Msg("external search failed")
		return "", err
	}
	s.setState(Ready)

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: %q", ErrProtocol, line)
	}
	s.log.Debug().
		Str("bestmove", fields[1]).
		Int("skill", req.Skill).
		Dur("elapsed", time.Since(start)).
		Msg("external search done")
	return fields[1], nil
}

// Shutdown sends quit, terminates the engine and moves to Closed. Any
// request in progress fails with ErrClosed.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	conn, w := s.conn, s.wait
	s.conn, s.wait = nil, nil
	s.state = Closed
	s.mu.Unlock()

	if w != nil {
		w.done <- reply{err: ErrClosed}
	}
	if conn == nil {
		return nil
	}
	io.WriteString(conn, "quit\n")
	return conn.Close()
}

// exchange registers the expected reply, writes cmds and waits for it.
func (s *Session) exchange(ctx context.Context, conn Conn, expect string, timeout time.Duration, cmds ...string) (string, error) {
	w := &pending{expect: expect, done: make(chan reply, 1)}
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return "", ErrClosed
	}
	s.wait = w
	s.mu.Unlock()

	for _, c := range cmds {
		if _, err := io.WriteString(conn, c+"\n"); err != nil {
			s.clear(w)
			return "", fmt.Errorf("%w: write %q: %v", ErrSessionFailed, c, err)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-w.done:
		return r.line, r.err
	case <-timer.C:
		s.clear(w)
		return "", fmt.Errorf("%w: waiting for %s after %v", ErrTimeout, expect, timeout)
	case <-ctx.Done():
		s.clear(w)
		return "", ctx.Err()
	}
}

func (s *Session) clear(w *pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wait == w {
		s.wait = nil
	}
}

func (s *Session) readLoop(conn Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		s.dispatch(conn, strings.TrimSpace(sc.Text()))
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	s.fail(conn, fmt.Errorf("%w: engine output closed: %v", ErrSessionFailed, err))
}

func (s *Session) dispatch(conn Conn, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn != s.conn {
		return
	}
	if name, ok := strings.CutPrefix(line, "id name "); ok {
		s.name = name
	}
	w := s.wait
	if w == nil {
		return
	}
	if line == w.expect || strings.HasPrefix(line, w.expect+" ") {
		s.wait = nil
		w.done <- reply{line: line}
	}
}

// fail marks the session Failed if conn is still current and wakes any
// waiter with err.
func (s *Session) fail(conn Conn, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn != s.conn {
		return
	}
	if s.state != Closed {
		s.state = Failed
	}
	if w := s.wait; w != nil {
		s.wait = nil
		w.done <- reply{err: err}
	}
}
