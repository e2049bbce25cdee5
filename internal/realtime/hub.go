package realtime

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub tracks the sockets of this process: who is online, which rooms each
// socket joined, and which sockets belong to each person. Presence is local
// to the process and advisory.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*Conn               // connID -> conn
	persons   map[string]map[string]*Conn    // personID -> connID -> conn
	rooms     map[string]map[string]*Conn    // room -> connID -> conn
	connRooms map[string]map[string]struct{} // connID -> rooms
}

func NewHub() *Hub {
	return &Hub{
		conns:     make(map[string]*Conn),
		persons:   make(map[string]map[string]*Conn),
		rooms:     make(map[string]map[string]*Conn),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers conn. It reports whether conn is the first live socket of
// its person, i.e. whether the person just came online.
func (h *Hub) Attach(conn *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn.ID] = conn
	if conn.PersonID == "" {
		return false
	}
	set := h.persons[conn.PersonID]
	if set == nil {
		set = make(map[string]*Conn)
		h.persons[conn.PersonID] = set
	}
	set[conn.ID] = conn
	return len(set) == 1
}

// Detach removes conn from every room and from presence. It reports whether
// this was the person's last socket, i.e. whether the person went offline.
func (h *Hub) Detach(conn *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn.ID]; !ok {
		return false
	}
	delete(h.conns, conn.ID)

	for room := range h.connRooms[conn.ID] {
		h.leaveLocked(room, conn.ID)
	}
	delete(h.connRooms, conn.ID)

	if conn.PersonID == "" {
		return false
	}
	set := h.persons[conn.PersonID]
	delete(set, conn.ID)
	if len(set) > 0 {
		return false
	}
	delete(h.persons, conn.PersonID)
	return true
}

// Join subscribes conn to room. Membership is not checked against the
// conversation's participants.
func (h *Hub) Join(room string, conn *Conn) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn.ID]; !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Conn)
		h.rooms[room] = members
	}
	members[conn.ID] = conn

	joined := h.connRooms[conn.ID]
	if joined == nil {
		joined = make(map[string]struct{})
		h.connRooms[conn.ID] = joined
	}
	joined[room] = struct{}{}
}

func (h *Hub) Leave(room string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, conn.ID)
}

func (h *Hub) leaveLocked(room, connID string) {
	if members := h.rooms[room]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined := h.connRooms[connID]; joined != nil {
		delete(joined, room)
	}
}

// Online lists the persons with at least one live socket, sorted.
func (h *Hub) Online() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.persons))
	for id := range h.persons {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (h *Hub) IsOnline(personID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.persons[personID]) > 0
}

// Count returns the number of live sockets.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// deliver sends payload to the target's sockets on this process, skipping
// the socket named by exceptConn. It returns the number of sockets reached.
func (h *Hub) deliver(target Target, payload []byte, exceptConn string) int {
	h.mu.RLock()
	var recipients []*Conn
	switch target.Kind {
	case TargetRoom:
		recipients = collect(h.rooms[target.Key], exceptConn)
	case TargetPerson:
		recipients = collect(h.persons[target.Key], exceptConn)
	case TargetAll:
		recipients = collect(h.conns, exceptConn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range recipients {
		if err := conn.Send(payload); err != nil {
			log.Debug().Err(err).Str("connId", conn.ID).Msg("socket send failed")
			continue
		}
		delivered++
	}
	return delivered
}

// closeAll disconnects every socket, used at shutdown.
func (h *Hub) closeAll(code int, reason string) {
	h.mu.RLock()
	conns := collect(h.conns, "")
	h.mu.RUnlock()
	for _, conn := range conns {
		conn.Close(code, reason)
	}
}

func collect(set map[string]*Conn, except string) []*Conn {
	out := make([]*Conn, 0, len(set))
	for id, conn := range set {
		if id == except {
			continue
		}
		out = append(out, conn)
	}
	return out
}
