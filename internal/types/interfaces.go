package types

import (
	"context"
	"errors"

	"github.com/palemoky/doodle-relay/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface is the core's view of one connected client. The
// transport owns the connection; rooms only hold this reference.
type ClientInterface interface {
	GetID() string
	GetName() string
	GetAvatar() string
	// SendMessage is best effort: it reports false when the frame was
	// dropped because the connection is closed or backed up.
	SendMessage(msg *protocol.Message) bool
	Close()
}

// ErrRecordNotFound is returned by RoomStore.LookupRoom for an unknown id.
var ErrRecordNotFound = errors.New("room record not found")

// Persisted room statuses.
const (
	RoomStatusWaiting  = "WAITING"
	RoomStatusPlaying  = "PLAYING"
	RoomStatusFinished = "FINISHED"
)

// RoomRecord is the externally persisted metadata of a room.
type RoomRecord struct {
	ID          string
	HostID      string
	Status      string
	MemberCount int
	CreatedAt   int64
}

// RoomSnapshot is a point-in-time copy of a live room, kept for inspection.
type RoomSnapshot struct {
	ID        string            `json:"id"`
	HostID    string            `json:"host_id"`
	Phase     string            `json:"phase"`
	Round     int               `json:"round"`
	Members   []string          `json:"members"`
	PassMap   map[string]string `json:"pass_map,omitempty"`
	Pending   []string          `json:"pending,omitempty"`
	Turns     int               `json:"turns"`
	CreatedAt int64             `json:"created_at"`
}

// RoomStore is the persisted-room collaborator consumed by the room package.
type RoomStore interface {
	LookupRoom(ctx context.Context, id string) (*RoomRecord, error)
	SaveRoom(ctx context.Context, rec *RoomRecord) error
	UpdateRoomStatus(ctx context.Context, id, status string) error
	UpdateMemberCount(ctx context.Context, id string, count int) error
	SaveSnapshot(ctx context.Context, snap *RoomSnapshot) error
	DeleteSnapshot(ctx context.Context, id string) error
}
