package sync

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// subscriber is one attached event consumer, regardless of transport.
type subscriber interface {
	send(b []byte) error
	close()
	transport() string
}

type tcpSub struct {
	conn net.Conn
}

func (t tcpSub) send(b []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := t.conn.Write(b)
	return err
}

func (t tcpSub) close()            { _ = t.conn.Close() }
func (t tcpSub) transport() string { return "tcp" }

type wsSub struct {
	conn *websocket.Conn
}

func (w wsSub) send(b []byte) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

func (w wsSub) close()            { _ = w.conn.Close() }
func (w wsSub) transport() string { return "ws" }

// Hub fans catalog events out to every subscriber. Plain TCP clients get
// line-delimited JSON, WebSocket clients get one text message per event.
type Hub struct {
	mu   sync.Mutex
	subs map[subscriber]struct{}
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subscriber]struct{})}
}

func (h *Hub) Add(conn net.Conn) {
	h.add(tcpSub{conn: conn})
}

func (h *Hub) Remove(conn net.Conn) {
	h.remove(tcpSub{conn: conn})
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.add(wsSub{conn: ws})
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.remove(wsSub{conn: ws})
}

func (h *Hub) add(s subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(s subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.close()
}

// BroadcastJSON serializes v once and writes it to every subscriber.
// A subscriber that fails to take the write is dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		if err := s.send(b); err != nil {
			s.close()
			delete(h.subs, s)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	var st Stats
	for s := range h.subs {
		switch s.transport() {
		case "tcp":
			st.TCPClients++
		case "ws":
			st.WSClients++
		}
	}
	return st
}

type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

// Welcome greets a fresh TCP subscriber with the current client count.
func (h *Hub) Welcome(conn net.Conn) {
	msg := welcome{Type: "welcome", Transport: "tcp", Clients: h.Stats().TCPClients}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_, _ = conn.Write(append(b, '\n'))
}
