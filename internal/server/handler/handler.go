package handler

import (
	"context"
	"errors"

	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/game/room"
	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	Membership  *room.Membership
	Coordinator *room.Coordinator
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	membership  *room.Membership
	coordinator *room.Coordinator
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(ctx context.Context, client types.ClientInterface, msg *protocol.Message) error

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		membership:  deps.Membership,
		coordinator: deps.Coordinator,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 房间操作
		protocol.MsgCreateRoom: func(ctx context.Context, c types.ClientInterface, _ *protocol.Message) error {
			return h.handleCreateRoom(ctx, c)
		},
		protocol.MsgJoinRoom:  h.handleJoinRoom,
		protocol.MsgLeaveRoom: h.handleLeaveRoom,

		// 游戏操作
		protocol.MsgStartGame:  h.handleStartGame,
		protocol.MsgSubmission: h.handleSubmission,
	}
}

// Handle 处理消息. Failures are reported to the sender as an error frame;
// the connection stays open.
func (h *Handler) Handle(ctx context.Context, client types.ClientInterface, msg *protocol.Message) {
	handler, ok := h.handlers[msg.Type]
	if !ok {
		logger.WithPlayer(client.GetID()).WithField("type", msg.Type).Warn("⚠️ 未知消息类型")
		h.sendError(client, apperrors.ErrUnknownMessageType)
		return
	}

	if err := handler(ctx, client, msg); err != nil {
		h.sendError(client, err)
	}
}

// HandleDisconnect removes a closed connection's player from its rooms.
func (h *Handler) HandleDisconnect(ctx context.Context, client types.ClientInterface) {
	h.membership.Disconnect(ctx, client.GetID())
}

// sendError maps err to an error frame.
func (h *Handler) sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessage(gameErr.Code))
		return
	}

	logger.WithPlayer(client.GetID()).WithError(err).Error("❌ 处理消息失败")
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
}
