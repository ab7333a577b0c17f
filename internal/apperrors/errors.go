package apperrors

import (
	"github.com/palemoky/doodle-relay/internal/protocol"
)

// GameError is a protocol-level failure reported to the acting client as an
// error frame. It never closes the connection.
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newGameError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrMalformedMessage    = newGameError(protocol.ErrCodeInvalidMsg)
	ErrUnknownMessageType  = newGameError(protocol.ErrCodeUnknownType)
	ErrRoomNotFound        = newGameError(protocol.ErrCodeRoomNotFound)
	ErrRoomFull            = newGameError(protocol.ErrCodeRoomFull)
	ErrRoomNotJoinable     = newGameError(protocol.ErrCodeRoomNotJoinable)
	ErrAlreadyMember       = newGameError(protocol.ErrCodeAlreadyMember)
	ErrNotAMember          = newGameError(protocol.ErrCodeNotAMember)
	ErrNotHost             = newGameError(protocol.ErrCodeNotHost)
	ErrInsufficientPlayers = newGameError(protocol.ErrCodeInsufficientPlayers)
	ErrGameStarted         = newGameError(protocol.ErrCodeGameStarted)
	ErrGameNotActive       = newGameError(protocol.ErrCodeGameNotActive)
	ErrServerMaintenance   = newGameError(protocol.ErrCodeServerMaintenance)
)
