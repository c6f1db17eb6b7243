package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/ai"
	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/storage"
	"github.com/hailam/chessbot/internal/uci"
)

// gate holds every external search until it is opened.
type gate struct {
	entered chan struct{}
	open    chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 4), open: make(chan struct{})}
}

func (g *gate) BestMove(_ context.Context, pos uci.Resolver, _ int) (board.MoveInfo, error) {
	g.entered <- struct{}{}
	<-g.open
	return pos.ResolveMove("e2e4")
}

type fakeHistory struct {
	stats *storage.Stats
	err   error
}

func (f *fakeHistory) LoadStats() (*storage.Stats, error) { return f.stats, f.err }

func (f *fakeHistory) Recent(n int) ([]storage.SelectionRecord, error) {
	return []storage.SelectionRecord{{ID: "x", Move: "e2e4"}}[:min(n, 1)], f.err
}

func newTestServer(t *testing.T, history History, opts ...ai.CoordinatorOption) *httptest.Server {
	t.Helper()
	w := ai.NewWorker(ai.NewCoordinator(engine.New(engine.WithSeed(9)), opts...))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	ts := httptest.NewServer(New(w, history, zerolog.Nop()).Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode
}

func postMove(t *testing.T, url, body string, v any) int {
	t.Helper()
	res, err := http.Post(url+"/api/move", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	var body map[string]any
	if code := getJSON(t, ts.URL+"/healthz", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz %d %v", code, body)
	}
}

func TestPostMove(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("legal move", func(t *testing.T) {
		var resp moveResponse
		code := postMove(t, ts.URL, `{"fen":"6k1/5ppp/8/8/8/8/8/3Q2K1 w - - 0 1","difficulty":"easy"}`, &resp)
		if code != http.StatusOK {
			t.Fatalf("status %d", code)
		}
		if resp.Move == nil || *resp.Move != "d1d8" || resp.From != "d1" || resp.To != "d8" || resp.Backend != "local" {
			t.Errorf("response %+v", resp)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		var resp moveResponse
		code := postMove(t, ts.URL, `{"difficulty":"stockfish_4"}`, &resp)
		if code != http.StatusOK || !resp.Fallback || resp.Move == nil {
			t.Errorf("status %d response %+v", code, resp)
		}
	})

	t.Run("no move", func(t *testing.T) {
		var resp map[string]any
		code := postMove(t, ts.URL, `{"fen":"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"}`, &resp)
		if code != http.StatusOK {
			t.Fatalf("status %d", code)
		}
		if mv, ok := resp["move"]; !ok || mv != nil || resp["outcome"] != "stalemate" {
			t.Errorf("response %v", resp)
		}
	})

	for name, body := range map[string]string{
		"malformed fen":  `{"fen":"rnbqkbnr/pppppppp/8/8 w"}`,
		"malformed json": `{"fen":`,
	} {
		t.Run(name, func(t *testing.T) {
			var resp map[string]any
			if code := postMove(t, ts.URL, body, &resp); code != http.StatusBadRequest {
				t.Errorf("status %d, want 400 (%v)", code, resp)
			}
		})
	}
}

func TestPostMoveBusy(t *testing.T) {
	g := newGate()
	ts := newTestServer(t, nil, ai.WithExternal(g))

	first := make(chan int, 1)
	go func() {
		res, err := http.Post(ts.URL+"/api/move", "application/json", strings.NewReader(`{"difficulty":"stockfish"}`))
		if err != nil {
			first <- 0
			return
		}
		res.Body.Close()
		first <- res.StatusCode
	}()
	<-g.entered

	var resp map[string]any
	if code := postMove(t, ts.URL, `{"difficulty":"easy"}`, &resp); code != http.StatusTooManyRequests || resp["error"] != "busy" {
		t.Errorf("second request: %d %v", code, resp)
	}
	close(g.open)
	if code := <-first; code != http.StatusOK {
		t.Errorf("first request: %d", code)
	}
}

func TestLegalMoves(t *testing.T) {
	ts := newTestServer(t, nil)
	var body struct {
		Square string      `json:"square"`
		Moves  []legalMove `json:"moves"`
	}
	if code := getJSON(t, ts.URL+"/api/moves?square=e2", &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	var got []string
	for _, m := range body.Moves {
		got = append(got, m.Move)
	}
	if strings.Join(got, ",") != "e2e3,e2e4" && strings.Join(got, ",") != "e2e4,e2e3" {
		t.Errorf("moves from e2: %v", got)
	}

	var errBody map[string]any
	if code := getJSON(t, ts.URL+"/api/moves?square=z9", &errBody); code != http.StatusBadRequest {
		t.Errorf("bad square: status %d", code)
	}
}

func TestStats(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, nil)
		var body map[string]any
		if code := getJSON(t, ts.URL+"/api/stats", &body); code != http.StatusServiceUnavailable {
			t.Errorf("status %d", code)
		}
	})

	t.Run("stored", func(t *testing.T) {
		stats := storage.NewStats()
		stats.Requests = 7
		ts := newTestServer(t, &fakeHistory{stats: stats})
		var body storage.Stats
		if code := getJSON(t, ts.URL+"/api/stats", &body); code != http.StatusOK || body.Requests != 7 {
			t.Errorf("status %d body %+v", code, body)
		}
		var hist struct {
			Selections []storage.SelectionRecord `json:"selections"`
		}
		if code := getJSON(t, ts.URL+"/api/history?limit=5", &hist); code != http.StatusOK || len(hist.Selections) != 1 {
			t.Errorf("history status %d body %+v", code, hist)
		}
	})

	t.Run("failing store", func(t *testing.T) {
		ts := newTestServer(t, &fakeHistory{err: errors.New("disk gone")})
		var body map[string]any
		if code := getJSON(t, ts.URL+"/api/stats", &body); code != http.StatusInternalServerError {
			t.Errorf("status %d", code)
		}
	})
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

func TestWebSocket(t *testing.T) {
	g := newGate()
	ts := newTestServer(t, nil, ai.WithExternal(g))
	conn := dialWS(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"one","difficulty":"stockfish"}`)); err != nil {
		t.Fatal(err)
	}
	<-g.entered
	if err := conn.WriteJSON(moveRequest{ID: "two", Difficulty: "easy"}); err != nil {
		t.Fatal(err)
	}
	var busy wsMessage
	if err := conn.ReadJSON(&busy); err != nil {
		t.Fatal(err)
	}
	if busy.Type != "error" || busy.ID != "two" || busy.Error != "busy" {
		t.Errorf("second request answered with %+v", busy)
	}

	close(g.open)
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "move" || msg.ID != "one" || msg.Move == nil || *msg.Move.Move != "e2e4" || msg.Move.Backend != "external" {
		t.Errorf("first request answered with %+v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	msg = wsMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" || msg.Error != "bad_request" {
		t.Errorf("garbage answered with %+v", msg)
	}

	if err := conn.WriteJSON(moveRequest{ID: "three", FEN: "8/8/8/8 w - - 0 1"}); err != nil {
		t.Fatal(err)
	}
	msg = wsMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" || msg.ID != "three" || msg.Error != "invalid_fen" {
		t.Errorf("bad fen answered with %+v", msg)
	}
}
