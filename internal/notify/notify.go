package notify

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"
)

const (
	RegisterMessageType = "register"
	ArrivalMessageType  = "new_arrival"
)

// RegisterMessage is what a client sends over UDP to start receiving
// arrival notices.
type RegisterMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

// ArrivalMessage announces that an issue flagged as a new arrival entered
// the catalog.
type ArrivalMessage struct {
	Type       string `json:"type"`
	MagazineID int64  `json:"magazine_id"`
	Number     string `json:"number"`
	Year       *int   `json:"year,omitempty"`
}

type Client struct {
	ClientID string
	Addr     *net.UDPAddr
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(clientID string, addr *net.UDPAddr) {
	if clientID == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[clientID] = Client{ClientID: clientID, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	delete(r.clients, clientID)
	r.mu.Unlock()
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

type Server struct {
	addr     string
	registry *Registry
	logger   *log.Logger
	conn     *net.UDPConn
}

func NewServer(addr string, registry *Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, registry: registry, logger: logger}
}

func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	defer conn.Close()

	s.logger.Printf("[notify] UDP server listening on %s", s.addr)

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.logger.Printf("[notify] invalid UDP message from %s: %v", addr, err)
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.ClientID, addr)
		s.logger.Printf("[notify] registered client %s (%s)", msg.ClientID, addr)
	}
}

// BroadcastArrival notifies every registered client about a fresh arrival.
func (s *Server) BroadcastArrival(magazineID int64, number string, year *int) {
	if s.conn == nil {
		s.logger.Printf("[notify] UDP server not running")
		return
	}
	payload, err := json.Marshal(ArrivalMessage{
		Type:       ArrivalMessageType,
		MagazineID: magazineID,
		Number:     number,
		Year:       year,
	})
	if err != nil {
		s.logger.Printf("[notify] failed to marshal broadcast: %v", err)
		return
	}

	for _, client := range s.registry.Snapshot() {
		s.sendWithRetry(client, payload)
	}
}

func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		s.logger.Printf("[notify] failed to notify %s at %s: %v", client.ClientID, client.Addr, err)
		s.registry.Remove(client.ClientID)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.ClientID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
