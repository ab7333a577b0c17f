//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/doodle-relay/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetAvatar() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SendMessage(msg *protocol.Message) bool {
	args := m.Called(msg)
	return args.Bool(0)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用的测试）
//
// It records every frame it accepts. While closed it drops frames and
// SendMessage reports false, like a connection that went away.
type SimpleClient struct {
	ID     string
	Name   string
	Avatar string

	mu       sync.Mutex
	closed   bool
	messages []*protocol.Message
}

// NewSimpleClient returns an open client named after its id.
func NewSimpleClient(id string) *SimpleClient {
	return &SimpleClient{ID: id, Name: "player-" + id}
}

func (m *SimpleClient) GetID() string     { return m.ID }
func (m *SimpleClient) GetName() string   { return m.Name }
func (m *SimpleClient) GetAvatar() string { return m.Avatar }

func (m *SimpleClient) SendMessage(msg *protocol.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.messages = append(m.messages, msg)
	return true
}

func (m *SimpleClient) Close() { m.SetClosed(true) }

// SetClosed toggles whether the client accepts frames.
func (m *SimpleClient) SetClosed(closed bool) {
	m.mu.Lock()
	m.closed = closed
	m.mu.Unlock()
}

// Messages returns a copy of the accepted frames.
func (m *SimpleClient) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

// MessagesOfType returns the accepted frames of type t.
func (m *SimpleClient) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*protocol.Message
	for _, msg := range m.messages {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// LastOfType returns the most recent frame of type t, or nil.
func (m *SimpleClient) LastOfType(t protocol.MessageType) *protocol.Message {
	msgs := m.MessagesOfType(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Reset forgets recorded frames.
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()
}
