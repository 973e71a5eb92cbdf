package availability

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/slotify/slotify/internal/models"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// subscriber owns one websocket. Only writeLoop writes to conn.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
}

func (s *subscriber) writeLoop() {
	defer s.conn.Close()
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub streams availability snapshots to websocket subscribers of a slot.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint]map[*subscriber]struct{}
	upgrader    websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request, sends initial and then every broadcast for
// slotID until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, slotID uint, initial models.Availability) error {
	data, err := json.Marshal(initial)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	sub := newSubscriber(conn)

	// Queue the snapshot before any broadcast can reach the new subscriber
	h.mu.Lock()
	if h.subscribers[slotID] == nil {
		h.subscribers[slotID] = make(map[*subscriber]struct{})
	}
	h.subscribers[slotID][sub] = struct{}{}
	sub.send <- data
	h.mu.Unlock()

	go sub.writeLoop()

	// Reads only detect the close; clients send nothing we use.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(slotID, sub)
	return nil
}

// Broadcast queues a to every subscriber of its slot without waiting on the
// network. A subscriber whose queue is full is dropped.
func (h *Hub) Broadcast(a models.Availability) {
	data, err := json.Marshal(a)
	if err != nil {
		log.Printf("[AvailabilityHub] encode slot %d: %v", a.SlotID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[a.SlotID] {
		select {
		case sub.send <- data:
		default:
			log.Printf("[AvailabilityHub] dropping slow subscriber of slot %d", a.SlotID)
			h.dropLocked(a.SlotID, sub)
		}
	}
}

func (h *Hub) Subscribers(slotID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[slotID])
}

func (h *Hub) remove(slotID uint, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(slotID, sub)
}

func (h *Hub) dropLocked(slotID uint, sub *subscriber) {
	delete(h.subscribers[slotID], sub)
	if len(h.subscribers[slotID]) == 0 {
		delete(h.subscribers, slotID)
	}
	sub.close()
}

// Local is the cache-less AvailabilityCache: nothing is stored, updates go
// straight to this instance's subscribers.
type Local struct {
	hub *Hub
}

func NewLocal(hub *Hub) *Local {
	return &Local{hub: hub}
}

func (l *Local) Get(ctx context.Context, slotID uint) (models.Availability, bool, error) {
	return models.Availability{}, false, nil
}

func (l *Local) Publish(ctx context.Context, a models.Availability) error {
	l.hub.Broadcast(a)
	return nil
}
