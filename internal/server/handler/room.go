package handler

import (
	"context"

	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/game/room"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/types"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(ctx context.Context, client types.ClientInterface) error {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		return apperrors.ErrServerMaintenance
	}

	_, err := h.membership.CreateRoom(ctx, room.NewPlayer(client))
	return err
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		return apperrors.ErrServerMaintenance
	}

	payload, err := codec.ParsePayload[protocol.RoomRequestPayload](msg)
	if err != nil {
		return apperrors.ErrMalformedMessage
	}

	_, err = h.membership.JoinRoom(ctx, payload.RoomID, room.NewPlayer(client))
	return err
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.RoomRequestPayload](msg)
	if err != nil {
		return apperrors.ErrMalformedMessage
	}

	return h.membership.LeaveRoom(ctx, payload.RoomID, room.NewPlayer(client))
}
