package room

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/doodle-relay/internal/game/passmap"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/testutil"
	"github.com/palemoky/doodle-relay/internal/types"
)

type fixture struct {
	reg        *Registry
	store      *testutil.MemoryRoomStore
	persister  *Persister
	membership *Membership
	coord      *Coordinator
}

// inJoinOrder passes every paper to the next player to have joined.
func inJoinOrder(ids []string) (map[string]string, error) {
	return passmap.FromOrder(ids...), nil
}

func newFixture(t *testing.T, opts ...CoordinatorOption) *fixture {
	t.Helper()
	store := testutil.NewMemoryRoomStore()
	persister := NewPersister(store)
	t.Cleanup(persister.Close)

	reg := NewRegistry()
	if len(opts) == 0 {
		opts = []CoordinatorOption{WithPassMap(inJoinOrder)}
	}
	return &fixture{
		reg:        reg,
		store:      store,
		persister:  persister,
		membership: NewMembership(reg, persister),
		coord:      NewCoordinator(reg, persister, opts...),
	}
}

// flush waits for queued writes to reach the store.
func (f *fixture) flush() {
	f.persister.Close()
}

func newTestPlayer(id string) (*Player, *testutil.SimpleClient) {
	c := testutil.NewSimpleClient(id)
	return NewPlayer(c), c
}

// seedRoom persists a waiting record for id hosted by hostID.
func (f *fixture) seedRoom(id, hostID string) {
	f.store.Put(types.RoomRecord{ID: id, HostID: hostID, Status: types.RoomStatusWaiting})
}

// openRoom creates a room through the host and joins the others to it.
func (f *fixture) openRoom(t *testing.T, ids ...string) (*Room, map[string]*Player, map[string]*testutil.SimpleClient) {
	t.Helper()
	players := make(map[string]*Player, len(ids))
	clients := make(map[string]*testutil.SimpleClient, len(ids))
	for _, id := range ids {
		players[id], clients[id] = newTestPlayer(id)
	}

	r, err := f.membership.CreateRoom(t.Context(), players[ids[0]])
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err := f.membership.JoinRoom(t.Context(), r.ID, players[id])
		require.NoError(t, err)
	}
	for _, c := range clients {
		c.Reset()
	}
	return r, players, clients
}

func decode[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}
