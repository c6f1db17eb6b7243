// Package httpapi serves move selection over HTTP and WebSocket.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/ai"
	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/storage"
)

// History is the read side of the selection store. *storage.Storage
// implements it.
type History interface {
	LoadStats() (*storage.Stats, error)
	Recent(n int) ([]storage.SelectionRecord, error)
}

type Server struct {
	worker  *ai.Worker
	history History
	log     zerolog.Logger
	router  *gin.Engine
}

// New builds the routes. history may be nil, in which case the stats and
// history endpoints answer 503.
func New(w *ai.Worker, history History, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{worker: w, history: history, log: log, router: gin.New()}
	s.router.Use(gin.Recovery(), requestLogger(log))

	s.router.GET("/healthz", s.health)
	api := s.router.Group("/api")
	api.POST("/move", s.selectMove)
	api.GET("/moves", s.legalMoves)
	api.GET("/stats", s.stats)
	api.GET("/history", s.recent)
	s.router.GET("/ws", s.serveWS)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

type moveRequest struct {
	ID         string `json:"id"`
	FEN        string `json:"fen"`
	Difficulty string `json:"difficulty"`
}

type moveResponse struct {
	ID             string  `json:"id"`
	Move           *string `json:"move"`
	From           string  `json:"from,omitempty"`
	To             string  `json:"to,omitempty"`
	Promotion      string  `json:"promotion,omitempty"`
	Backend        string  `json:"backend"`
	Fallback       bool    `json:"fallback"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	Outcome        string  `json:"outcome"`
	Score          int     `json:"score"`
	Depth          int     `json:"depth"`
	ElapsedMS      int64   `json:"elapsed_ms"`
}

func toMoveResponse(resp ai.Response) moveResponse {
	sel := resp.Selection
	out := moveResponse{
		ID:             resp.ID,
		Backend:        string(sel.Backend),
		Fallback:       sel.Fallback,
		FallbackReason: sel.FallbackReason,
		Outcome:        sel.Outcome.String(),
		Score:          int(sel.Score),
		Depth:          sel.Depth,
		ElapsedMS:      sel.Elapsed.Milliseconds(),
	}
	if sel.Found {
		mv := resp.Move
		out.Move = &mv
		out.From = sel.Move.From().String()
		out.To = sel.Move.To().String()
		if sel.Move.IsPromotion() {
			out.Promotion = string(sel.Move.Promotion.Letter())
		}
	}
	return out
}

// errorStatus maps worker and request errors to an HTTP status and a short
// code for clients.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, board.ErrInvalidFEN):
		return http.StatusBadRequest, "invalid_fen"
	case errors.Is(err, ai.ErrBusy):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, ai.ErrStopped):
		return http.StatusServiceUnavailable, "stopped"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "busy": s.worker.Busy()})
}

func (s *Server) selectMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
		return
	}
	resp, err := s.worker.Do(c.Request.Context(), ai.Request(req))
	if err == nil {
		err = resp.Err
	}
	if err != nil {
		status, code := errorStatus(err)
		c.JSON(status, gin.H{"error": code, "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toMoveResponse(resp))
}

type legalMove struct {
	Move      string `json:"move"`
	To        string `json:"to"`
	Capture   bool   `json:"capture"`
	Promotion string `json:"promotion,omitempty"`
	Check     bool   `json:"check"`
}

// legalMoves lists the legal moves from one square, for highlighting
// destinations in a client.
func (s *Server) legalMoves(c *gin.Context) {
	g, err := board.NewGame(c.Query("fen"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_fen", "detail": err.Error()})
		return
	}
	sq, err := board.ParseSquare(c.Query("square"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_square", "detail": err.Error()})
		return
	}
	moves := []legalMove{}
	for _, mi := range g.MovesFrom(sq) {
		lm := legalMove{Move: mi.String(), To: mi.To().String(), Capture: mi.IsCapture(), Check: mi.GivesCheck()}
		if mi.IsPromotion() {
			lm.Promotion = string(mi.Promotion.Letter())
		}
		moves = append(moves, lm)
	}
	c.JSON(http.StatusOK, gin.H{"square": sq.String(), "moves": moves})
}

func (s *Server) stats(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_disabled"})
		return
	}
	stats, err := s.history.LoadStats()
	if err != nil {
		s.log.Error().Err(err).Msg("load stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) recent(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_disabled"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		limit = n
	}
	recs, err := s.history.Recent(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	if recs == nil {
		recs = []storage.SelectionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"selections": recs})
}
