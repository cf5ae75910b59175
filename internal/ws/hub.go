package ws

import (
	"encoding/json"
	"sync"
	"time"

	"erp-backend/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Event types pushed to connected clients.
const (
	EventProduct      = "product_update"
	EventStockUpdate  = "stock_update"
	EventStockAlert   = "stock_alert"
	EventOrderStatus  = "order_status"
	EventQuoteStatus  = "quote_status"
	EventInvoice      = "invoice_update"
	EventPurchase     = "purchase_update"
	EventUserPresence = "user_status_update"
)

type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data,omitempty"`
	User    string      `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
	At      time.Time   `json:"at"`
}

// Publisher is what command handlers use to announce committed changes.
type Publisher interface {
	Publish(event Event)
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			count := len(h.Clients)
			h.mutex.Unlock()
			logger.L().Debug("ws client connected", zap.Int("clients", count))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish encodes event and queues it for broadcast. A full queue drops the
// event rather than blocking the caller.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	msg, err := json.Marshal(event)
	if err != nil {
		logger.L().Warn("ws encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		logger.L().Warn("ws broadcast queue full, dropping event", zap.String("type", event.Type))
	}
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Types returns the type of every recorded event in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
