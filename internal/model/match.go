package model

import "time"

// UnknownPlayer stands in for a missing opponent in a match record.
const UnknownPlayer = "unknown"

type Match struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID     string    `json:"roomId" bson:"roomId"`
	Winner     string    `json:"winner" bson:"winner"`
	Loser      string    `json:"loser" bson:"loser"`
	TimeTaken  int       `json:"timeTaken" bson:"timeTaken"` // seconds
	FinishedAt time.Time `json:"finishedAt" bson:"finishedAt"`
}

// MatchResult is what the session coordinator hands to the match store.
type MatchResult struct {
	RoomID    string
	Winner    string
	Loser     string
	TimeTaken int
}
