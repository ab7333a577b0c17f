//go:build !production

package room

import "time"

// NewTestRoom builds an untracked waiting room holding members, the first
// of which is the host.
func NewTestRoom(id string, members ...*Player) *Room {
	hostID := ""
	if len(members) > 0 {
		hostID = members[0].ID
	}
	r := newRoom(id, hostID, time.Now())
	r.members = append(r.members, members...)
	return r
}
