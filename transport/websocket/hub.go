package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/supplysim/beergame/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Client is one websocket connection watching a game or the lobby.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

// Hub maintains the set of active clients and fans events out to them.
// Watchers are keyed by game id; the empty id is the lobby.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*Client]bool

	broadcast  chan *outbound
	register   chan *Client
	unregister chan *Client
	evict      chan string
}

type outbound struct {
	gameID string
	data   []byte
}

// NewHub creates a new hub. Call Run in its own goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		watchers:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		evict:      make(chan string),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)

		case gameID := <-h.evict:
			h.evictWatchers(gameID)
		}
	}
}

// Publish sends an event to every watcher of a game, or to the lobby when
// gameID is empty. It implements service.Publisher.
func (h *Hub) Publish(gameID string, event *service.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[websocket] failed to marshal event %s: %v", event.Type, err)
		return
	}
	h.broadcast <- &outbound{gameID: gameID, data: data}
}

// Evict closes every watcher of a game that no longer exists.
func (h *Hub) Evict(gameID string) {
	h.evict <- gameID
}

// ServeWS upgrades an HTTP request to a watcher connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		gameID: gameID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// WatcherCount reports how many clients watch a game id.
func (h *Hub) WatcherCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[gameID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchers[client.gameID] == nil {
		h.watchers[client.gameID] = make(map[*Client]bool)
	}
	h.watchers[client.gameID][client] = true

	log.Printf("[websocket] watcher joined %q (total: %d)",
		client.gameID, len(h.watchers[client.gameID]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropClientLocked(client)
}

func (h *Hub) dropClientLocked(client *Client) {
	clients, ok := h.watchers[client.gameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.watchers, client.gameID)
	}

	log.Printf("[websocket] watcher left %q (remaining: %d)", client.gameID, len(clients))
}

func (h *Hub) deliver(message *outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.watchers[message.gameID] {
		select {
		case client.send <- message.data:
		default:
			// Watcher can't keep up; drop it.
			h.dropClientLocked(client)
		}
	}
}

func (h *Hub) evictWatchers(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.watchers[gameID] {
		h.dropClientLocked(client)
	}
}

// readPump drains the connection so pongs are processed. Incoming frames are
// otherwise ignored; commands arrive over the REST API.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
