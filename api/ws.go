package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is a client request: {"type":"query","data":"gh domain:github"}
// or {"type":"resolve","data":"!gh cats"}.
type wsMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// wsReply is what the server pushes back.
type wsReply struct {
	Type    string          `json:"type"`
	Data    string          `json:"data,omitempty"`
	Query   string          `json:"query,omitempty"`
	Results *searchResponse `json:"results,omitempty"`
}

// handleWS serves live search. A client may pass ?session=<id> to reattach
// to an earlier session; its last query is replayed immediately.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.live.Get(r.URL.Query().Get("session"))
	if !ok {
		s = h.live.Create()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(msg wsReply) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}
	writeResults := func(q string) error {
		res := h.runSearch(q)
		return writeMsg(wsReply{Type: "results", Query: q, Results: &res})
	}

	changed := make(chan struct{}, 1)
	kick := s.SetClient(changed) // kicks any prior client of this session
	defer s.ClearClient(changed)

	if err := writeMsg(wsReply{Type: "session", Data: s.ID}); err != nil {
		return
	}
	if q := s.Query(); q != "" {
		if err := writeResults(q); err != nil {
			return
		}
	}

	// Goroutine: re-run the current query whenever the store changes, and
	// close the connection when a newer client takes the session over so
	// ReadJSON below unblocks.
	connDone := make(chan struct{})
	go func() {
		for {
			select {
			case <-changed:
				if err := writeResults(s.Query()); err != nil {
					return
				}
			case <-kick:
				conn.Close()
				return
			case <-connDone:
				return
			}
		}
	}()
	defer close(connDone)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// Client went away or was displaced. The session stays for reattach.
			return
		}

		switch msg.Type {
		case "query":
			s.SetQuery(msg.Data)
			if err := writeResults(msg.Data); err != nil {
				return
			}
		case "resolve":
			res, err := h.reg.Resolve(msg.Data)
			reply := wsReply{Type: "redirect", Data: res.URL, Query: msg.Data}
			if err != nil {
				reply = wsReply{Type: "error", Data: err.Error(), Query: msg.Data}
			}
			if err := writeMsg(reply); err != nil {
				return
			}
		default:
			if err := writeMsg(wsReply{Type: "error", Data: "unknown message type " + msg.Type}); err != nil {
				return
			}
		}
	}
}

