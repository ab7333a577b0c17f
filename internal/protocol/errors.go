package protocol

// 错误码
const (
	ErrCodeUnknown             = 1000
	ErrCodeInvalidMsg          = 1001
	ErrCodeUnknownType         = 1002
	ErrCodeRateLimit           = 1003
	ErrCodeRoomNotFound        = 2001
	ErrCodeRoomFull            = 2002
	ErrCodeRoomNotJoinable     = 2003
	ErrCodeAlreadyMember       = 2004
	ErrCodeNotAMember          = 2005
	ErrCodeNotHost             = 3001
	ErrCodeInsufficientPlayers = 3002
	ErrCodeGameStarted         = 3003
	ErrCodeGameNotActive       = 3004
	ErrCodeServerMaintenance   = 5003
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:             "Unknown error",
	ErrCodeInvalidMsg:          "Invalid message format",
	ErrCodeUnknownType:         "Unknown message type",
	ErrCodeRateLimit:           "Too many messages",
	ErrCodeRoomNotFound:        "Room not found",
	ErrCodeRoomFull:            "Room is full",
	ErrCodeRoomNotJoinable:     "Invalid or started room",
	ErrCodeAlreadyMember:       "Already in room",
	ErrCodeNotAMember:          "Player not in this room",
	ErrCodeNotHost:             "Only host can start the game",
	ErrCodeInsufficientPlayers: "Not enough players",
	ErrCodeGameStarted:         "Game already started",
	ErrCodeGameNotActive:       "Game is not in progress",
	ErrCodeServerMaintenance:   "Server is under maintenance",
}
