package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/doodle-relay/internal/game/passmap"
	"github.com/palemoky/doodle-relay/internal/game/room"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/testutil"
)

type testEnv struct {
	h      *Handler
	server *testutil.MockServer
	store  *testutil.MemoryRoomStore
	reg    *room.Registry
}

func newTestEnv(t *testing.T, maintenance bool) *testEnv {
	t.Helper()
	store := testutil.NewMemoryRoomStore()
	persister := room.NewPersister(store)
	t.Cleanup(persister.Close)

	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(maintenance)

	reg := room.NewRegistry()
	h := NewHandler(HandlerDeps{
		Server:     srv,
		Membership: room.NewMembership(reg, persister),
		Coordinator: room.NewCoordinator(reg, persister, room.WithPassMap(func(ids []string) (map[string]string, error) {
			return passmap.FromOrder(ids...), nil
		})),
	})
	return &testEnv{h: h, server: srv, store: store, reg: reg}
}

func roomMsg(t protocol.MessageType, roomID string) *protocol.Message {
	return codec.MustNewMessage(t, protocol.RoomRequestPayload{RoomID: roomID})
}

func submitMsg(roomID, content string) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgSubmission, protocol.SubmissionPayload{RoomID: roomID, Content: content})
}

func lastError(t *testing.T, c *testutil.SimpleClient) protocol.ErrorPayload {
	t.Helper()
	msg := c.LastOfType(protocol.MsgError)
	require.NotNil(t, msg, "expected an error frame")
	var p protocol.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Data, &p))
	return p
}

// createRoom runs create_room for c and returns the new room id.
func (e *testEnv) createRoom(t *testing.T, c *testutil.SimpleClient) string {
	t.Helper()
	e.h.Handle(context.Background(), c, &protocol.Message{Type: protocol.MsgCreateRoom})
	msg := c.LastOfType(protocol.MsgRoomCreated)
	require.NotNil(t, msg)
	var p protocol.RoomCreatedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &p))
	return p.RoomID
}

func TestHandler_UnknownType(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	c := testutil.NewSimpleClient("a")

	env.h.Handle(context.Background(), c, &protocol.Message{Type: "chat"})
	assert.Equal(t, protocol.ErrorPayload{Msg: "Unknown message type", Code: protocol.ErrCodeUnknownType}, lastError(t, c))
}

func TestHandler_MalformedPayloads(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)

	for _, typ := range []protocol.MessageType{
		protocol.MsgJoinRoom, protocol.MsgLeaveRoom, protocol.MsgStartGame, protocol.MsgSubmission,
	} {
		t.Run(string(typ), func(t *testing.T) {
			t.Parallel()
			c := testutil.NewSimpleClient("a")

			env.h.Handle(context.Background(), c, &protocol.Message{Type: typ})
			assert.Equal(t, "Invalid message format", lastError(t, c).Msg)

			c.Reset()
			env.h.Handle(context.Background(), c, &protocol.Message{Type: typ, Data: json.RawMessage(`{"content":"x"}`)})
			assert.Equal(t, "Invalid message format", lastError(t, c).Msg, "roomId is required")
		})
	}
}

func TestHandler_CreateAndJoin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	host := testutil.NewSimpleClient("host")
	guest := testutil.NewSimpleClient("guest")

	id := env.createRoom(t, host)
	env.h.Handle(context.Background(), guest, roomMsg(protocol.MsgJoinRoom, id))

	assert.NotNil(t, guest.LastOfType(protocol.MsgJoinedRoom))
	assert.NotNil(t, host.LastOfType(protocol.MsgPlayerJoined))
	list := host.LastOfType(protocol.MsgPlayerList)
	require.NotNil(t, list)
	assert.Equal(t, "host", list.HostID)
	assert.Nil(t, guest.LastOfType(protocol.MsgError))

	env.h.Handle(context.Background(), guest, roomMsg(protocol.MsgJoinRoom, id))
	assert.Equal(t, "Already in room", lastError(t, guest).Msg)

	env.h.Handle(context.Background(), guest, roomMsg(protocol.MsgJoinRoom, "nope"))
	assert.Equal(t, "Room not found", lastError(t, guest).Msg)
}

func TestHandler_MaintenanceBlocksNewRooms(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, true)
	c := testutil.NewSimpleClient("a")

	env.h.Handle(context.Background(), c, &protocol.Message{Type: protocol.MsgCreateRoom})
	assert.Equal(t, protocol.ErrCodeServerMaintenance, lastError(t, c).Code)
	assert.Zero(t, env.reg.Count())

	env.h.Handle(context.Background(), c, roomMsg(protocol.MsgJoinRoom, "r1"))
	assert.Equal(t, protocol.ErrCodeServerMaintenance, lastError(t, c).Code)
	env.server.AssertExpectations(t)
}

func TestHandler_StartGameErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	host := testutil.NewSimpleClient("host")
	guest := testutil.NewSimpleClient("guest")
	id := env.createRoom(t, host)

	env.h.Handle(context.Background(), host, roomMsg(protocol.MsgStartGame, id))
	assert.Equal(t, "Not enough players", lastError(t, host).Msg)

	env.h.Handle(context.Background(), guest, roomMsg(protocol.MsgJoinRoom, id))
	env.h.Handle(context.Background(), guest, roomMsg(protocol.MsgStartGame, id))
	assert.Equal(t, "Only host can start the game", lastError(t, guest).Msg)

	env.h.Handle(context.Background(), host, roomMsg(protocol.MsgStartGame, "nope"))
	assert.Equal(t, "Room not found", lastError(t, host).Msg)
}

func TestHandler_PlayFullGame(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	a := testutil.NewSimpleClient("a")
	b := testutil.NewSimpleClient("b")
	id := env.createRoom(t, a)
	env.h.Handle(context.Background(), b, roomMsg(protocol.MsgJoinRoom, id))

	outsider := testutil.NewSimpleClient("x")
	env.h.Handle(context.Background(), outsider, submitMsg(id, "hi"))
	assert.Equal(t, "Game is not in progress", lastError(t, outsider).Msg, "not started yet")

	env.h.Handle(context.Background(), a, roomMsg(protocol.MsgStartGame, id))
	env.h.Handle(context.Background(), outsider, submitMsg(id, "hi"))
	assert.Equal(t, "Player not in this room", lastError(t, outsider).Msg)

	for round, contents := range [][2]string{{"a cat", "a dog"}, {"cat.png", "dog.png"}} {
		env.h.Handle(context.Background(), a, submitMsg(id, contents[0]))
		env.h.Handle(context.Background(), b, submitMsg(id, contents[1]))

		var got protocol.GameContentPayload
		require.NoError(t, json.Unmarshal(b.LastOfType(protocol.MsgGameContent).Data, &got))
		assert.Equal(t, "a", got.From)
		assert.Equal(t, contents[0], got.Content, "round %d", round+1)
	}

	var phase protocol.GamePhasePayload
	require.NoError(t, json.Unmarshal(a.LastOfType(protocol.MsgGamePhase).Data, &phase))
	assert.Equal(t, "finished", phase.Phase)

	history, err := env.h.coordinator.History(id)
	require.NoError(t, err)
	assert.Len(t, history, 4)

	assert.Nil(t, a.LastOfType(protocol.MsgError))
	assert.Nil(t, b.LastOfType(protocol.MsgError))
}

func TestHandler_LeaveAndDisconnect(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, false)
	a := testutil.NewSimpleClient("a")
	b := testutil.NewSimpleClient("b")
	id := env.createRoom(t, a)
	env.h.Handle(context.Background(), b, roomMsg(protocol.MsgJoinRoom, id))

	env.h.Handle(context.Background(), b, roomMsg(protocol.MsgLeaveRoom, id))
	assert.NotNil(t, b.LastOfType(protocol.MsgLeftRoom))
	assert.Equal(t, 1, env.reg.Get(id).MemberCount())

	env.h.HandleDisconnect(context.Background(), a)
	assert.Nil(t, env.reg.Get(id))

	env.h.Handle(context.Background(), b, roomMsg(protocol.MsgLeaveRoom, id))
	assert.Equal(t, "Room not found", lastError(t, b).Msg)
}

func TestHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	t.Parallel()
	store := new(testutil.MockRoomStore)
	store.On("LookupRoom", mock.Anything, "r1").Return(nil, errors.New("redis: connection refused"))
	persister := room.NewPersister(store)
	t.Cleanup(persister.Close)

	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(false)
	reg := room.NewRegistry()
	h := NewHandler(HandlerDeps{
		Server:      srv,
		Membership:  room.NewMembership(reg, persister),
		Coordinator: room.NewCoordinator(reg, persister),
	})

	c := testutil.NewSimpleClient("a")
	h.Handle(context.Background(), c, roomMsg(protocol.MsgJoinRoom, "r1"))
	assert.Equal(t, protocol.ErrorPayload{Msg: "Unknown error", Code: protocol.ErrCodeUnknown}, lastError(t, c))
}

// Not parallel: it raises the global log level and hooks the standard logger.
func TestHandler_SubmissionLogCarriesPlayerAndRoom(t *testing.T) {
	hook := test.NewGlobal()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})

	env := newTestEnv(t, false)
	a := testutil.NewSimpleClient("a")
	b := testutil.NewSimpleClient("b")
	id := env.createRoom(t, a)
	env.h.Handle(context.Background(), b, roomMsg(protocol.MsgJoinRoom, id))
	env.h.Handle(context.Background(), a, roomMsg(protocol.MsgStartGame, id))

	hook.Reset()
	env.h.Handle(context.Background(), a, submitMsg(id, "a cat"))

	var found *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "✏️ 收到提交" {
			found = e
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "a", found.Data["player"])
	assert.Equal(t, id, found.Data["room"])
	assert.Equal(t, 1, found.Data["pending"])
}
