package protocol

// --- 客户端请求 Payloads ---

// RoomRequestPayload is shared by join_room, leave_room and start_game.
type RoomRequestPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// SubmissionPayload 提交本回合内容
type SubmissionPayload struct {
	RoomID  string `json:"roomId" validate:"required"`
	Content string `json:"content"`
}

// --- 服务端响应 Payloads ---

// RoomCreatedPayload 房间创建成功
type RoomCreatedPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// JoinedRoomPayload 加入房间成功
type JoinedRoomPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// LeftRoomPayload 离开房间确认
type LeftRoomPayload struct {
	RoomID string `json:"roomId"`
}

// GamePhasePayload 阶段变化通知. Round is omitted once the game is finished.
type GamePhasePayload struct {
	Phase string `json:"phase"`
	Round int    `json:"round,omitempty"`
}

// GameContentPayload is one routed turn, delivered privately.
type GameContentPayload struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Msg  string `json:"msg"`
	Code int    `json:"code,omitempty"`
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
