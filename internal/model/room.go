package model

import "time"

type RoomState string

const (
	RoomWaiting  RoomState = "waiting"
	RoomReady    RoomState = "ready"
	RoomPlaying  RoomState = "playing"
	RoomFinished RoomState = "finished"
)

const (
	DefaultChallenge      = "Write HELLO WORLD inside H1 tag"
	DefaultExpectedOutput = "<h1>HELLO WORLD</h1>"
	DefaultTimeLimit      = 5
	MinTimeLimit          = 2
	MaxTimeLimit          = 10
	DefaultMaxPlayers     = 2
)

type Room struct {
	RoomID           string    `json:"roomId" bson:"roomId"`
	Password         string    `json:"password,omitempty" bson:"password"`
	Host             string    `json:"host" bson:"host"`
	HostUsername     string    `json:"hostUsername" bson:"hostUsername"`
	Opponent         string    `json:"opponent,omitempty" bson:"opponent,omitempty"`
	OpponentUsername string    `json:"opponentUsername,omitempty" bson:"opponentUsername,omitempty"`
	Challenge        string    `json:"challenge" bson:"challenge"`
	ExpectedOutput   string    `json:"expectedOutput" bson:"expectedOutput"`
	TimeLimit        int       `json:"timeLimit" bson:"timeLimit"` // minutes
	MaxPlayers       int       `json:"maxPlayers" bson:"maxPlayers"`
	State            RoomState `json:"state" bson:"state"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TimeLimitSeconds returns the configured match duration, falling back to
// DefaultTimeLimit when the stored value is unset.
func (r *Room) TimeLimitSeconds() int {
	if r.TimeLimit <= 0 {
		return DefaultTimeLimit * 60
	}
	return r.TimeLimit * 60
}

// ClampTimeLimit bounds a requested limit to the range rooms accept.
func ClampTimeLimit(minutes int) int {
	switch {
	case minutes <= 0:
		return DefaultTimeLimit
	case minutes < MinTimeLimit:
		return MinTimeLimit
	case minutes > MaxTimeLimit:
		return MaxTimeLimit
	}
	return minutes
}
