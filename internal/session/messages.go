package session

import "codeduel/internal/model"

// Outbound message types
const (
	MsgRoomUpdate         = "room-update"
	MsgGameStarted        = "game-started"
	MsgTimerUpdate        = "timer-update"
	MsgOpponentCodeUpdate = "opponent-code-update"
	MsgCodeOutput         = "code-output"
	MsgSubmitResult       = "submit-result"
	MsgGameOver           = "game-over"
	MsgPlayerDisconnected = "player-disconnected"
)

// Game-over reasons
const (
	ReasonWinner     = "winner"
	ReasonTimeUp     = "time-up"
	ReasonDisconnect = "disconnect"
)

type ParticipantView struct {
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

type RoomUpdate struct {
	HostUsername     string            `json:"hostUsername"`
	OpponentUsername string            `json:"opponentUsername"`
	State            model.RoomState   `json:"state"`
	Participants     []ParticipantView `json:"participants"`
}

type GameStarted struct {
	Challenge      string `json:"challenge"`
	ExpectedOutput string `json:"expectedOutput"`
	TimeLimit      int    `json:"timeLimit"`
}

type TimerUpdate struct {
	TimeRemaining int `json:"timeRemaining"`
}

type OpponentCodeUpdate struct {
	Username   string `json:"username"`
	BinaryCode string `json:"binaryCode"`
}

type CodeOutput struct {
	Output  string `json:"output"`
	Success bool   `json:"success"`
}

type SubmitResult struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

type GameOver struct {
	Reason    string `json:"reason"`
	Winner    string `json:"winner,omitempty"`
	Loser     string `json:"loser,omitempty"`
	TimeTaken *int   `json:"timeTaken,omitempty"`
	Message   string `json:"message"`
}

type PlayerDisconnected struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}
