package room

import (
	"errors"
	"sync"
)

// ErrRoomExists is returned by Create when the id is already tracked.
var ErrRoomExists = errors.New("room already exists")

// Registry tracks the live rooms of one server process.
//
// Lock order is room.mu before Registry.mu. Code holding the registry
// lock never waits on a room lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry 创建房间注册表
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create starts tracking r.
func (g *Registry) Create(r *Room) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.rooms[r.ID]; ok {
		return ErrRoomExists
	}
	g.rooms[r.ID] = r
	return nil
}

// Get returns the live room, or nil.
func (g *Registry) Get(id string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[id]
}

// GetOrCreate returns the tracked room for id, materializing it with
// create when absent. Concurrent callers for the same id all receive the
// same instance; created is true for exactly one of them.
func (g *Registry) GetOrCreate(id string, create func() *Room) (r *Room, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[id]; ok {
		return r, false
	}
	r = create()
	g.rooms[id] = r
	return r, true
}

// Delete stops tracking id.
func (g *Registry) Delete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
}

// DeleteIf stops tracking id only while it still maps to r.
func (g *Registry) DeleteIf(id string, r *Room) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[id] != r {
		return false
	}
	delete(g.rooms, id)
	return true
}

// Rooms returns the tracked rooms. The slice is a copy.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// Count 获取当前房间数量
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// ActiveGames counts rooms with a game in progress.
func (g *Registry) ActiveGames() int {
	n := 0
	for _, r := range g.Rooms() {
		if r.Phase().Active() {
			n++
		}
	}
	return n
}
