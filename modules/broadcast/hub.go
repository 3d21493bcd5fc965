package broadcast

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// ErrClientNotFound is returned when a unicast targets an unknown client.
var ErrClientNotFound = errors.New("client not found")

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// clientQueueSize bounds the frames waiting for one client. A client that
// falls this far behind is dropped.
const clientQueueSize = 256

// Client represents a connected WebSocket client. The room is fixed for
// the lifetime of the connection.
type Client struct {
	ID     string
	RoomID string

	conn     Conn
	mu       sync.Mutex // serializes writes to conn
	queue    chan []byte
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewClient creates a client bound to roomID.
func NewClient(id, roomID string, conn Conn) *Client {
	return &Client{
		ID:      id,
		RoomID:  roomID,
		conn:    conn,
		queue:   make(chan []byte, clientQueueSize),
		stopped: make(chan struct{}),
	}
}

// Send writes one text frame to the client immediately.
func (c *Client) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// enqueue hands frame to the client's writer without blocking. It reports
// false when the queue is full or the client has stopped.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.stopped:
		return false
	default:
	}
	select {
	case c.queue <- frame:
		return true
	default:
		return false
	}
}

// writeLoop drains the queue in order until the client stops.
func (c *Client) writeLoop() {
	for {
		select {
		case <-c.stopped:
			return
		case frame := <-c.queue:
			if err := c.Send(frame); err != nil {
				log.Printf("[hub] Failed to send to client %s: %v", c.ID, err)
			}
		}
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

// close stops the writer and closes the connection. It does not take the
// write lock so that it can interrupt a blocked write.
func (c *Client) close() {
	c.stop()
	_ = c.conn.Close()
}

// Hub manages WebSocket connections and room fan-out.
type Hub struct {
	clients   map[string]*Client         // clientID -> Client
	rooms     map[string]map[string]bool // roomID -> set of clientIDs
	broadcast chan *BroadcastMessage
	done      chan struct{}
	mu        sync.RWMutex
}

// BroadcastMessage is an encoded frame addressed to a room.
type BroadcastMessage struct {
	RoomID  string
	Frame   []byte
	Exclude string // client id that must not receive the frame
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]bool),
		broadcast: make(chan *BroadcastMessage, 256),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's fan-out loop. Each client receives frames in the
// order they were queued, through its own writer, so a stalled connection
// only delays itself.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

// Register adds a client to the hub and its room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.rooms[client.RoomID] == nil {
		h.rooms[client.RoomID] = make(map[string]bool)
	}
	h.rooms[client.RoomID][client.ID] = true
	go client.writeLoop()
	log.Printf("[hub] Client %s registered in room %s", client.ID, client.RoomID)
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	client.stop()
	if members := h.rooms[client.RoomID]; members != nil {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	log.Printf("[hub] Client %s unregistered from room %s", client.ID, client.RoomID)
}

// Broadcast queues frame for every member of roomID except exclude.
// Frames queued after the hub stopped are discarded.
func (h *Hub) Broadcast(roomID string, frame []byte, exclude string) {
	select {
	case h.broadcast <- &BroadcastMessage{RoomID: roomID, Frame: frame, Exclude: exclude}:
	case <-h.done:
	}
}

func (h *Hub) handleBroadcast(msg *BroadcastMessage) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[msg.RoomID]))
	for clientID := range h.rooms[msg.RoomID] {
		if clientID == msg.Exclude {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if !client.enqueue(msg.Frame) {
			h.drop(client)
		}
	}
}

// drop disconnects a client whose queue overflowed. The connection's read
// loop then fails and performs the regular cleanup.
func (h *Hub) drop(client *Client) {
	log.Printf("[hub] Dropping slow client %s in room %s", client.ID, client.RoomID)
	h.Unregister(client)
	client.close()
}

// SendTo writes frame to a single client immediately.
func (h *Hub) SendTo(clientID string, frame []byte) error {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return ErrClientNotFound
	}
	return client.Send(frame)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
