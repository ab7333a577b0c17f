package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/server/auth"
	"github.com/palemoky/doodle-relay/internal/server/core"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小, large enough for an encoded drawing
	maxMessageSize = 1 << 20

	// 发送缓冲区大小
	sendBufferSize = 256
)

// Client 代表一个已认证的连接
type Client struct {
	ID     string // 玩家 ID（来自令牌）
	Name   string
	Avatar string
	IP     string

	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *core.MessageLimiter

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, id *auth.Identity) *Client {
	limit := s.config.Security.MessageLimit
	ctx, cancel := context.WithCancel(s.ctx)
	return &Client{
		ID:      id.ID,
		Name:    id.Name,
		Avatar:  id.Image,
		server:  s,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: core.NewMessageLimiter(limit.MaxPerSecond, limit.Burst, limit.MaxWarnings),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Client) GetID() string     { return c.ID }
func (c *Client) GetName() string   { return c.Name }
func (c *Client) GetAvatar() string { return c.Avatar }

// ReadPump 从 WebSocket 读取消息, returning when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	log := logger.WithPlayer(c.ID)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("读取错误")
			}
			return
		}

		// 消息速率限制检查
		allowed, exhausted := c.limiter.Allow()
		if !allowed {
			abuse := log.WithFields(logrus.Fields{"ip": c.IP, "warnings": c.limiter.Warnings()})
			abuse.Warn("⚠️ 消息过于频繁")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			// 如果警告次数过多，断开连接
			if exhausted {
				abuse.Warn("🚫 多次超速，断开连接")
				return
			}
			continue
		}

		// 解析消息
		msg, err := codec.Decode(data)
		if err != nil {
			log.WithError(err).Debug("消息解析错误")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.dispatch(msg)
	}
}

// dispatch 交给处理器处理. A panic is contained to the offending message.
func (c *Client) dispatch(msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		}
	}()
	c.server.handler.Handle(c.ctx, c, msg)
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端. It never blocks: a closed connection or a
// full send buffer drops the frame and reports false.
func (c *Client) SendMessage(msg *protocol.Message) bool {
	data, err := codec.Encode(msg)
	if err != nil {
		logger.WithPlayer(c.ID).WithError(err).Error("消息编码错误")
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		// 发送缓冲区已满，连接无法跟上，关闭它
		logger.WithPlayer(c.ID).Warn("发送缓冲区已满，关闭连接")
		go c.Close()
		return false
	}
}

// handleDisconnect 处理断开连接
func (c *Client) handleDisconnect() {
	c.server.unregisterClient(c)
	// 离开所有房间
	c.server.handler.HandleDisconnect(context.Background(), c)
	c.Close()
	c.cancel()
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
