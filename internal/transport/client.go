// Package transport is the websocket client used by the terminal UI.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	handshakeTimeout = 10 * time.Second
	bufferSize       = 256
)

// ErrClosed is returned once the connection has gone away.
var ErrClosed = errors.New("connection closed")

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	conn      *websocket.Conn
	send      chan []byte
	receive   chan *protocol.Message
	done      chan struct{}

	// OnClose runs once after the read side has stopped.
	OnClose func()

	mu       sync.RWMutex
	closed   bool
	closeErr error
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL: serverURL,
		send:      make(chan []byte, bufferSize),
		receive:   make(chan *protocol.Message, bufferSize),
		done:      make(chan struct{}),
	}
}

// Connect 连接服务器并启动读写协程
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.ServerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return fmt.Errorf("dial %s: %s", c.ServerURL, resp.Status)
		}
		return fmt.Errorf("dial %s: %w", c.ServerURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	return nil
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.conn == nil {
		return ErrClosed
	}

	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Receive 接收消息 (阻塞). After the connection drops it returns the close
// reason, or ErrClosed if there was none.
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, c.Err()
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-c.receive:
		return msg, nil
	case <-timer.C:
		return nil, errors.New("receive timeout")
	case <-c.done:
		return nil, c.Err()
	}
}

// Err returns why the connection closed, ErrClosed when the server gave
// no reason, or nil while it is still open.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.closed {
		return nil
	}
	if c.closeErr != nil {
		return c.closeErr
	}
	return ErrClosed
}

// Close 关闭连接. The write pump sends the close frame and releases the
// socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

// --- 便捷方法 ---

// CreateRoom 创建房间
func (c *Client) CreateRoom() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgCreateRoom, nil))
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(roomID string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.RoomRequestPayload{RoomID: roomID}))
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom(roomID string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgLeaveRoom, protocol.RoomRequestPayload{RoomID: roomID}))
}

// StartGame 开始游戏
func (c *Client) StartGame(roomID string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgStartGame, protocol.RoomRequestPayload{RoomID: roomID}))
}

// Submit 提交本回合内容
func (c *Client) Submit(roomID, content string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgSubmission, protocol.SubmissionPayload{
		RoomID:  roomID,
		Content: content,
	}))
}
