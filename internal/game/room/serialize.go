package room

import (
	"github.com/palemoky/doodle-relay/internal/types"
)

// snapshot 将 Room 转换为可序列化的快照. Caller holds mu.
func (r *Room) snapshot() *types.RoomSnapshot {
	snap := &types.RoomSnapshot{
		ID:        r.ID,
		HostID:    r.HostID,
		Phase:     r.phase.String(),
		Round:     r.round,
		Members:   r.memberIDs(),
		Pending:   append([]string(nil), r.order...),
		Turns:     len(r.history),
		CreatedAt: r.CreatedAt.Unix(),
	}
	if r.passMap != nil {
		snap.PassMap = make(map[string]string, len(r.passMap))
		for k, v := range r.passMap {
			snap.PassMap[k] = v
		}
	}
	return snap
}

// Snapshot returns a point-in-time copy of the room.
func (r *Room) Snapshot() *types.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// record builds the persisted metadata row for the room. Caller holds mu.
func (r *Room) record(status string) *types.RoomRecord {
	return &types.RoomRecord{
		ID:          r.ID,
		HostID:      r.HostID,
		Status:      status,
		MemberCount: len(r.members),
		CreatedAt:   r.CreatedAt.Unix(),
	}
}
