package websocket

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrRoomNotFound = errors.New("no listeners for room")

// WSRoom groups the live listeners of one chat room.
type WSRoom struct {
	ID      string
	Clients map[string]*Client

	mu sync.RWMutex
}

type RoomManager struct {
	upgrader websocket.Upgrader
	rooms    map[string]*WSRoom
	mu       sync.RWMutex
}

// NewRoomManager accepts upgrades from the given origins; an empty list or
// "*" allows any origin.
func NewRoomManager(allowedOrigins ...string) *RoomManager {
	rm := &RoomManager{
		rooms: make(map[string]*WSRoom),
	}
	rm.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return rm
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

func (rm *RoomManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return rm.upgrader.Upgrade(w, r, nil)
}

func (rm *RoomManager) AddClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[cl.RoomID]
	if !ok {
		room = &WSRoom{
			ID:      cl.RoomID,
			Clients: make(map[string]*Client),
		}
		rm.rooms[cl.RoomID] = room
	}

	room.mu.Lock()
	room.Clients[cl.ID] = cl
	room.mu.Unlock()
}

// RemoveClient reports whether the client was still registered.
func (rm *RoomManager) RemoveClient(cl *Client) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[cl.RoomID]
	if !ok {
		return false
	}

	room.mu.Lock()
	_, exists := room.Clients[cl.ID]
	delete(room.Clients, cl.ID)
	empty := len(room.Clients) == 0
	room.mu.Unlock()

	if empty {
		delete(rm.rooms, cl.RoomID)
	}

	return exists
}

// BroadcastToRoom queues msg for every listener of its room and returns how
// many dropped it because their buffer was full.
func (rm *RoomManager) BroadcastToRoom(msg *WSMessage) (int, error) {
	rm.mu.RLock()
	room, ok := rm.rooms[msg.RoomID]
	rm.mu.RUnlock()

	if !ok {
		return 0, ErrRoomNotFound
	}

	room.mu.RLock()
	clients := make([]*Client, 0, len(room.Clients))
	for _, cl := range room.Clients {
		clients = append(clients, cl)
	}
	room.mu.RUnlock()

	dropped := 0
	for _, cl := range clients {
		if !cl.Send(msg) {
			dropped++
		}
	}

	return dropped, nil
}

func (rm *RoomManager) DisconnectAll() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, room := range rm.rooms {
		room.mu.Lock()
		for _, cl := range room.Clients {
			cl.Close()
		}
		room.mu.Unlock()
	}

	rm.rooms = make(map[string]*WSRoom)
}

func (rm *RoomManager) ClientCount(roomID string) int {
	rm.mu.RLock()
	room, ok := rm.rooms[roomID]
	rm.mu.RUnlock()

	if !ok {
		return 0
	}

	room.mu.RLock()
	defer room.mu.RUnlock()

	return len(room.Clients)
}
