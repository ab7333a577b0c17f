package protocol

import "encoding/json"

// Message 基础消息结构
//
// Every frame on the wire is {"type": ..., "data": ...}. The roster
// broadcast additionally carries hostId next to data.
type Message struct {
	Type   MessageType     `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	HostID string          `json:"hostId,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgCreateRoom MessageType = "create_room"
	MsgJoinRoom   MessageType = "join_room"
	MsgLeaveRoom  MessageType = "leave_room"
	MsgStartGame  MessageType = "start_game"
	MsgSubmission MessageType = "submission"
)

// 服务端 → 客户端 消息类型
const (
	MsgRoomCreated  MessageType = "room_created"
	MsgJoinedRoom   MessageType = "joined_room"
	MsgLeftRoom     MessageType = "left_room"
	MsgPlayerList   MessageType = "player_list"
	MsgPlayerJoined MessageType = "player_joined"
	MsgGamePhase    MessageType = "game_phase"
	MsgGameContent  MessageType = "game_content" // only ever sent to the recipient
	MsgError        MessageType = "error"
)
