// Package ui is the bubbletea terminal client for doodle-relay.
package ui

import (
	"context"

	"github.com/palemoky/doodle-relay/internal/protocol"
)

// Conn is the part of transport.Client the model talks to.
type Conn interface {
	Connect(ctx context.Context) error
	Receive() (*protocol.Message, error)
	CreateRoom() error
	JoinRoom(roomID string) error
	LeaveRoom(roomID string) error
	StartGame(roomID string) error
	Submit(roomID, content string) error
	Close()
}

// --- Tea Messages ---

// ServerMessage wraps a protocol message for tea.Msg.
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg indicates successful connection.
type ConnectedMsg struct{}

// ConnectionErrorMsg indicates the connection failed or dropped.
type ConnectionErrorMsg struct {
	Err error
}

// ClearErrorMsg clears the error line.
type ClearErrorMsg struct{}
