// Package websocket pushes work-queue changes to the hospital desks. Each
// desk subscribes to its topic and refreshes its queue when an event arrives,
// so a paid analysis shows up at the lab without polling.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/platform/auth"
)

// Desk topics.
const (
	TopicCashier   = "cashier"
	TopicLab       = "lab"
	TopicPharmacy  = "pharmacy"
	TopicEmergency = "emergency"
	TopicResults   = "results"
)

// topicRoles lists the roles allowed to follow each topic. Admins follow
// everything.
var topicRoles = map[string][]string{
	TopicCashier:   {auth.RoleCashier},
	TopicLab:       {auth.RoleLab},
	TopicPharmacy:  {auth.RolePharmacy},
	TopicEmergency: {auth.RoleDoctor, auth.RoleLab, auth.RolePharmacy, auth.RoleReception, auth.RoleCashier},
	TopicResults:   {auth.RoleDoctor},
}

// Allowed reports whether any of roles may follow topic.
func Allowed(topic string, roles []string) bool {
	allowed, ok := topicRoles[topic]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == auth.RoleAdmin {
			return true
		}
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

// Event is a queue change sent to desk clients.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	PatientID string          `json:"patient_id,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound subscription change.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// EventPublisher publishes events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a single desk connection.
type Client struct {
	ID     string
	Roles  []string
	Topics []string
	Send   chan []byte
	hub    *Hub
	conn   Conn
}

// Hub tracks clients and their topic subscriptions. A nil *Hub accepts
// every call and does nothing.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  zerolog.Nop(),
	}
}

func (h *Hub) SetLogger(l zerolog.Logger) {
	h.logger = l
}

// Register adds a client and subscribes it to the initial topics its roles
// allow.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	client.Topics = h.permitted(client, client.Topics)
	for _, topic := range client.Topics {
		h.add(topic, client)
	}
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.remove(topic, client)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to a registered client. Topics the client's roles
// do not allow are ignored.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range h.permitted(client, topics) {
		if _, ok := h.clients[topic][client]; ok {
			continue
		}
		h.add(topic, client)
		client.Topics = append(client.Topics, topic)
	}
}

func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
		h.remove(t, client)
	}

	remaining := make([]string, 0, len(client.Topics))
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

func (h *Hub) permitted(client *Client, topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if Allowed(t, client.Roles) {
			out = append(out, t)
		} else {
			h.logger.Debug().Str("client_id", client.ID).Str("topic", t).Msg("subscription refused")
		}
	}
	return out
}

func (h *Hub) add(topic string, client *Client) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) remove(topic string, client *Client) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends an event to every client subscribed to topic. Clients with
// a full buffer miss the event.
func (h *Hub) Broadcast(topic string, event Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn().Str("client_id", client.ID).Str("topic", topic).Msg("client buffer full, event dropped")
		}
	}
}

// Publish broadcasts the event to its topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event.Topic, event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// WebSocketHandler
// ---------------------------------------------------------------------------

// WebSocketHandler upgrades desk connections. It runs behind the API auth
// middleware; the identity's roles bound what the client may follow.
type WebSocketHandler struct {
	hub      *Hub
	upgrader gorillawebsocket.Upgrader
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" allows any.
func NewWebSocketHandler(hub *Hub, origins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(strings.TrimSpace(o), origin) {
				return true
			}
		}
		return false
	}
}

func (wsh *WebSocketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client on the topics
// named in ?topics= and starts the read and write pumps.
func (wsh *WebSocketHandler) HandleConnect(c echo.Context) error {
	var topics []string
	for _, t := range strings.Split(c.QueryParam("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	roles := auth.RolesFromContext(c.Request().Context())

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		Roles:  roles,
		Topics: topics,
		Send:   make(chan []byte, 256),
		hub:    wsh.hub,
		conn:   &gorillaConnAdapter{ws},
	}
	wsh.hub.Register(client)
	wsh.hub.logger.Info().Str("client_id", client.ID).Strs("topics", client.Topics).Msg("desk connected")

	go wsh.writePump(client, ws)
	go wsh.readPump(client, ws)

	return nil
}

func (wsh *WebSocketHandler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		wsh.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		wsh.hub.ProcessMessage(client, msg)
	}
}

func (wsh *WebSocketHandler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy Conn.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
