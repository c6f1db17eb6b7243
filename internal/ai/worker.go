package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/board"
)

var (
	ErrBusy    = errors.New("ai: a request is already in flight")
	ErrStopped = errors.New("ai: worker stopped")
)

// Request asks for a move in the position described by FEN.
type Request struct {
	ID         string
	FEN        string
	Difficulty string
}

// Response answers the Request with the same ID. Move is the compact form
// of the selection, empty when the side to move has none. Err is set for a
// malformed request or an aborted search.
type Response struct {
	ID        string
	Move      string
	Selection Selection
	Err       error
}

// Recorder receives every response the worker produces, before the
// response is delivered.
type Recorder interface {
	Record(ctx context.Context, req Request, resp Response) error
}

type job struct {
	req   Request
	reply chan Response
}

// Worker runs move selection on its own goroutine, one request at a time.
// Each request carries its own position snapshot, so the caller's game is
// never shared with the search.
type Worker struct {
	coord    *Coordinator
	log      zerolog.Logger
	recorder Recorder

	jobs chan job
	busy atomic.Bool
	done chan struct{}
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithRecorder sets a recorder for responses.
func WithRecorder(r Recorder) WorkerOption {
	return func(w *Worker) { w.recorder = r }
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(l zerolog.Logger) WorkerOption {
	return func(w *Worker) { w.log = l }
}

// NewWorker returns a worker; it handles nothing until Run is called.
func NewWorker(c *Coordinator, opts ...WorkerOption) *Worker {
	w := &Worker{
		coord: c,
		log:   zerolog.Nop(),
		jobs:  make(chan job, 1),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Busy reports whether a request is in flight.
func (w *Worker) Busy() bool { return w.busy.Load() }

// Submit queues req and returns the channel its single response will be
// delivered on. It fails with ErrBusy while an earlier request is still
// in flight. An empty ID is replaced by a fresh UUID.
func (w *Worker) Submit(req Request) (<-chan Response, error) {
	select {
	case <-w.done:
		return nil, ErrStopped
	default:
	}
	if !w.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	reply := make(chan Response, 1)
	w.jobs <- job{req: req, reply: reply}
	select {
	case <-w.done:
		// Run may have exited between the check above and the send.
		select {
		case <-w.jobs:
			w.busy.Store(false)
			return nil, ErrStopped
		default:
		}
	default:
	}
	return reply, nil
}

// Do submits req and waits for its response or the end of ctx.
func (w *Worker) Do(ctx context.Context, req Request) (Response, error) {
	reply, err := w.Submit(req)
	if err != nil {
		return Response{}, err
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Run serves requests until ctx ends. It must be called once.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Debug().Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			w.drain()
			close(w.done)
			w.drain()
			w.log.Debug().Msg("worker stopped")
			return nil
		case j := <-w.jobs:
			resp := w.handle(ctx, j.req)
			if w.recorder != nil {
				if err := w.recorder.Record(ctx, j.req, resp); err != nil {
					w.log.Warn().Err(err).Str("id", j.req.ID).Msg("record response")
				}
			}
			w.busy.Store(false)
			j.reply <- resp
		}
	}
}

func (w *Worker) drain() {
	select {
	case j := <-w.jobs:
		w.busy.Store(false)
		j.reply <- Response{ID: j.req.ID, Err: ErrStopped}
	default:
	}
}

func (w *Worker) handle(ctx context.Context, req Request) Response {
	log := w.log.With().Str("id", req.ID).Str("difficulty", req.Difficulty).Logger()
	g, err := board.NewGame(req.FEN)
	if err != nil {
		log.Info().Err(err).Msg("rejected request")
		return Response{ID: req.ID, Err: err}
	}
	start := time.Now()
	sel, err := w.coord.SelectMove(ctx, g, req.Difficulty)
	resp := Response{ID: req.ID, Selection: sel, Err: err}
	if sel.Found {
		resp.Move = sel.Move.String()
	}
	log.Info().
		Str("move", resp.Move).
		Str("backend", string(sel.Backend)).
		Bool("fallback", sel.Fallback).
		Dur("elapsed", time.Since(start)).
		Msg("move selected")
	return resp
}
