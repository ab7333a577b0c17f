package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/types"
)

// A join can lose a race with the room being torn down by its last member
// leaving; it then retries against a fresh materialization.
const maxJoinAttempts = 3

// Membership handles create, join, leave and disconnect.
type Membership struct {
	registry  *Registry
	persister *Persister
	newID     func() string
}

// NewMembership 创建成员管理器
func NewMembership(reg *Registry, persister *Persister) *Membership {
	return &Membership{
		registry:  reg,
		persister: persister,
		newID:     uuid.NewString,
	}
}

// CreateRoom opens a new room with p as host and sole member.
func (m *Membership) CreateRoom(ctx context.Context, p *Player) (*Room, error) {
	var r *Room
	for {
		r = newRoom(m.newID(), p.ID, time.Now())
		if err := m.registry.Create(r); err == nil {
			break
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.members = append(r.members, p)
	m.persister.saveRoom(r.record(types.RoomStatusWaiting))
	m.persister.saveSnapshot(r.snapshot())

	p.Client.SendMessage(codec.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomID:   r.ID,
		PlayerID: p.ID,
	}))
	r.broadcastPlayerList()

	logger.WithRoom(r.ID).WithField("host", p.ID).Info("🏠 房间已创建")
	return r, nil
}

// JoinRoom adds p to roomID, materializing the room from its persisted
// record the first time it is referenced on this server.
func (m *Membership) JoinRoom(ctx context.Context, roomID string, p *Player) (*Room, error) {
	for range maxJoinAttempts {
		r := m.registry.Get(roomID)
		if r == nil {
			var err error
			if r, err = m.materialize(ctx, roomID); err != nil {
				return nil, err
			}
		}

		admitted, err := m.admit(r, p)
		if err != nil {
			return nil, err
		}
		if admitted {
			return r, nil
		}
	}
	return nil, apperrors.ErrRoomNotFound
}

// materialize validates the persisted record and starts tracking the room.
// It runs with no lock held; the lookup is the only blocking call in the
// session engine.
func (m *Membership) materialize(ctx context.Context, roomID string) (*Room, error) {
	rec, err := m.persister.Lookup(ctx, roomID)
	if errors.Is(err, types.ErrRecordNotFound) {
		return nil, apperrors.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup room %s: %w", roomID, err)
	}
	if rec.Status != types.RoomStatusWaiting {
		return nil, apperrors.ErrRoomNotJoinable
	}
	if rec.MemberCount >= MaxPlayers {
		return nil, apperrors.ErrRoomFull
	}

	r, created := m.registry.GetOrCreate(roomID, func() *Room {
		return newRoom(roomID, rec.HostID, time.Unix(rec.CreatedAt, 0))
	})
	if created {
		logger.WithRoom(roomID).WithField("host", rec.HostID).Info("📥 房间已载入")
	}
	return r, nil
}

// admit reports false when r was torn down before the lock was acquired.
func (m *Membership) admit(r *Room, p *Player) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, nil
	}
	if len(r.members) >= MaxPlayers {
		return false, apperrors.ErrRoomFull
	}
	if r.memberIndex(p.ID) >= 0 {
		return false, apperrors.ErrAlreadyMember
	}
	if r.phase != PhaseWaiting {
		return false, apperrors.ErrRoomNotJoinable
	}

	r.members = append(r.members, p)
	m.persister.setMemberCount(r.ID, len(r.members))
	m.persister.saveSnapshot(r.snapshot())

	p.Client.SendMessage(codec.MustNewMessage(protocol.MsgJoinedRoom, protocol.JoinedRoomPayload{
		RoomID:   r.ID,
		PlayerID: p.ID,
	}))
	r.broadcastExcept(p.ID, codec.MustNewMessage(protocol.MsgPlayerJoined, p.Info()))
	r.broadcastPlayerList()

	logger.WithRoom(r.ID).WithFields(logrus.Fields{
		"player":  p.ID,
		"members": len(r.members),
	}).Info("👤 玩家加入房间")
	return true, nil
}

// LeaveRoom removes p from roomID. Leaving a room p is not in is a no-op;
// the left_room acknowledgement is sent either way.
func (m *Membership) LeaveRoom(ctx context.Context, roomID string, p *Player) error {
	r := m.registry.Get(roomID)
	if r == nil {
		return apperrors.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		m.depart(r, p.ID)
	}
	p.Client.SendMessage(codec.MustNewMessage(protocol.MsgLeftRoom, protocol.LeftRoomPayload{RoomID: roomID}))
	return nil
}

// Disconnect removes playerID from every room that lists it. It is called
// once per closed connection and never fails.
func (m *Membership) Disconnect(ctx context.Context, playerID string) {
	for _, r := range m.registry.Rooms() {
		r.mu.Lock()
		if !r.closed && m.depart(r, playerID) {
			logger.WithRoom(r.ID).WithField("player", playerID).Info("🔌 玩家断线离开房间")
		}
		r.mu.Unlock()
	}
}

// depart removes playerID and applies the consequences. Caller holds r.mu.
func (m *Membership) depart(r *Room, playerID string) bool {
	if !r.removeMember(playerID) {
		return false
	}

	if r.phase.Active() {
		abortGame(r, m.persister)
	}

	if len(r.members) == 0 {
		r.closed = true
		m.registry.DeleteIf(r.ID, r)
		m.persister.setMemberCount(r.ID, 0)
		m.persister.deleteSnapshot(r.ID)
		logger.WithRoom(r.ID).Info("🗑️ 房间已清空并移除")
		return true
	}

	m.persister.setMemberCount(r.ID, len(r.members))
	m.persister.saveSnapshot(r.snapshot())
	r.broadcastPlayerList()
	logger.WithRoom(r.ID).WithFields(logrus.Fields{
		"player":  playerID,
		"members": len(r.members),
	}).Info("👋 玩家离开房间")
	return true
}

// abortGame ends a game that lost a member. Caller holds r.mu.
func abortGame(r *Room, persister *Persister) {
	r.phase = PhaseFinished
	r.passMap = nil
	r.resetRound()
	r.broadcastPhase()
	persister.setStatus(r.ID, types.RoomStatusFinished)
	logger.WithRoom(r.ID).WithField("round", r.round).Warn("⛔ 玩家离开，游戏终止")
}
