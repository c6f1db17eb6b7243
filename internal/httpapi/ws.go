package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hailam/chessbot/internal/ai"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// wsMessage is sent for every request: type "move" with the selection, or
// type "error" with a short code.
type wsMessage struct {
	Type   string        `json:"type"`
	ID     string        `json:"id,omitempty"`
	Move   *moveResponse `json:"move,omitempty"`
	Error  string        `json:"error,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// serveWS answers each text message holding a move request with exactly one
// message. The worker takes one request at a time; a request sent while
// another is in flight is answered with a "busy" error.
func (s *Server) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	send := make(chan wsMessage, 8)
	done := make(chan struct{})
	defer close(done)
	go s.writeWS(conn, send, done)

	push := func(m wsMessage) {
		select {
		case send <- m:
		case <-done:
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req moveRequest
		if err := json.Unmarshal(data, &req); err != nil {
			push(wsMessage{Type: "error", Error: "bad_request", Detail: err.Error()})
			continue
		}
		reply, err := s.worker.Submit(ai.Request(req))
		if err != nil {
			_, code := errorStatus(err)
			push(wsMessage{Type: "error", ID: req.ID, Error: code})
			continue
		}
		go func() {
			var resp ai.Response
			select {
			case resp = <-reply:
			case <-done:
				return
			}
			if resp.Err != nil {
				_, code := errorStatus(resp.Err)
				push(wsMessage{Type: "error", ID: resp.ID, Error: code, Detail: resp.Err.Error()})
				return
			}
			mr := toMoveResponse(resp)
			push(wsMessage{Type: "move", ID: resp.ID, Move: &mr})
		}()
	}
}

func (s *Server) writeWS(conn *websocket.Conn, send <-chan wsMessage, done <-chan struct{}) {
	for {
		select {
		case m := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(m); err != nil {
				s.log.Debug().Err(err).Msg("websocket write")
				return
			}
		case <-done:
			return
		}
	}
}
