package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/game/room"
	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/types"
)

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.RoomRequestPayload](msg)
	if err != nil {
		return apperrors.ErrMalformedMessage
	}

	return h.coordinator.StartGame(ctx, payload.RoomID, room.NewPlayer(client))
}

// handleSubmission 处理本回合提交
func (h *Handler) handleSubmission(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.SubmissionPayload](msg)
	if err != nil {
		return apperrors.ErrMalformedMessage
	}

	res, err := h.coordinator.Submit(ctx, payload.RoomID, room.NewPlayer(client), payload.Content)
	if err != nil {
		return err
	}

	logger.WithPlayer(client.GetID()).WithFields(logrus.Fields{
		"room":    payload.RoomID,
		"pending": res.Pending,
	}).Debug("✏️ 收到提交")
	return nil
}
