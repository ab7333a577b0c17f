package room

import (
	"sync"
	"time"

	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/types"
)

const (
	MaxPlayers = 8 // 房间容量
	MinPlayers = 2 // 开局最少人数
)

// Player 房间中的玩家. Client is owned by the transport layer.
type Player struct {
	ID     string
	Name   string
	Avatar string
	Client types.ClientInterface
}

// NewPlayer builds the room-side record for a connected client.
func NewPlayer(c types.ClientInterface) *Player {
	return &Player{
		ID:     c.GetID(),
		Name:   c.GetName(),
		Avatar: c.GetAvatar(),
		Client: c,
	}
}

// Info 玩家公开信息
func (p *Player) Info() protocol.PlayerInfo {
	return protocol.PlayerInfo{ID: p.ID, Name: p.Name, Avatar: p.Avatar}
}

// Room 游戏房间
//
// Every field below mu is guarded by it. Membership and the round
// barrier are mutated only while mu is held, so "record submission, then
// check whether the round is complete" is a single critical section.
type Room struct {
	ID        string
	HostID    string
	CreatedAt time.Time

	mu      sync.Mutex
	members []*Player
	phase   Phase
	round   int
	passMap map[string]string
	buffer  map[string]Submission
	order   []string // senders in the order the buffer was filled
	history []Turn
	closed  bool // removed from the registry; must not be mutated again
}

func newRoom(id, hostID string, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		HostID:    hostID,
		CreatedAt: createdAt,
		phase:     PhaseWaiting,
		buffer:    make(map[string]Submission),
	}
}

// --- read accessors ---

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Round returns the round counter.
func (r *Room) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

// MemberCount returns the number of members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// HasMember reports whether playerID is a member.
func (r *Room) HasMember(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memberIndex(playerID) >= 0
}

// Roster returns the members in join order.
func (r *Room) Roster() []protocol.PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roster()
}

// History returns a copy of the turn history.
func (r *Room) History() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Turn(nil), r.history...)
}

// PassMap returns a copy of the current pass map, nil outside a game.
func (r *Room) PassMap() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.passMap == nil {
		return nil
	}
	m := make(map[string]string, len(r.passMap))
	for k, v := range r.passMap {
		m[k] = v
	}
	return m
}

// PendingSubmissions returns how many members have submitted this round.
func (r *Room) PendingSubmissions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// --- helpers, caller holds mu ---

func (r *Room) memberIndex(playerID string) int {
	for i, p := range r.members {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) member(playerID string) *Player {
	if i := r.memberIndex(playerID); i >= 0 {
		return r.members[i]
	}
	return nil
}

func (r *Room) memberIDs() []string {
	ids := make([]string, len(r.members))
	for i, p := range r.members {
		ids[i] = p.ID
	}
	return ids
}

func (r *Room) roster() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(r.members))
	for _, p := range r.members {
		infos = append(infos, p.Info())
	}
	return infos
}

// removeMember drops playerID from the member list and its pending submission.
func (r *Room) removeMember(playerID string) bool {
	i := r.memberIndex(playerID)
	if i < 0 {
		return false
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	if _, ok := r.buffer[playerID]; ok {
		delete(r.buffer, playerID)
		for j, id := range r.order {
			if id == playerID {
				r.order = append(r.order[:j], r.order[j+1:]...)
				break
			}
		}
	}
	return true
}

func (r *Room) resetRound() {
	clear(r.buffer)
	r.order = r.order[:0]
}

// broadcast sends msg to every member and returns how many accepted it.
func (r *Room) broadcast(msg *protocol.Message) int {
	delivered := 0
	for _, p := range r.members {
		if p.Client.SendMessage(msg) {
			delivered++
		}
	}
	return delivered
}

// broadcastExcept 广播消息给除指定玩家外的所有玩家
func (r *Room) broadcastExcept(excludeID string, msg *protocol.Message) {
	for _, p := range r.members {
		if p.ID != excludeID {
			p.Client.SendMessage(msg)
		}
	}
}

// broadcastPlayerList sends the roster, with the host id beside data.
func (r *Room) broadcastPlayerList() {
	msg := codec.MustNewMessage(protocol.MsgPlayerList, r.roster())
	msg.HostID = r.HostID
	r.broadcast(msg)
}

func (r *Room) broadcastPhase() {
	payload := protocol.GamePhasePayload{Phase: r.phase.String()}
	if r.phase != PhaseFinished {
		payload.Round = r.round
	}
	r.broadcast(codec.MustNewMessage(protocol.MsgGamePhase, payload))
}
