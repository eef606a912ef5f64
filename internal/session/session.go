package session

import (
	"sync"
	"time"

	"codeduel/internal/model"
)

// MaxParticipants is the number of users a duel holds.
const MaxParticipants = 2

// Participant is a joined user within a live session.
type Participant struct {
	ConnectionID string
	Code         string
	Ready        bool
	Connected    bool
}

// Session is the in-memory state of one room's duel. All fields are guarded
// by mu; the Coordinator is the only writer.
type Session struct {
	mu sync.Mutex

	roomID        string
	participants  map[string]*Participant
	order         []string // join order, for stable snapshots
	timeRemaining int
	duration      int
	state         model.RoomState
	timer         *countdown
	finished      bool

	room       *model.Room
	lastActive time.Time
}

func newSession(roomID string, timeLimitSeconds int, now time.Time) *Session {
	return &Session{
		roomID:        roomID,
		participants:  make(map[string]*Participant),
		timeRemaining: timeLimitSeconds,
		duration:      timeLimitSeconds,
		state:         model.RoomWaiting,
		lastActive:    now,
	}
}

// RoomID returns the room this session belongs to.
func (s *Session) RoomID() string {
	return s.roomID
}

func (s *Session) addParticipant(username string, p *Participant) {
	if _, ok := s.participants[username]; !ok {
		s.order = append(s.order, username)
	}
	s.participants[username] = p
}

func (s *Session) removeParticipant(username string) {
	if _, ok := s.participants[username]; !ok {
		return
	}
	delete(s.participants, username)
	for i, name := range s.order {
		if name == username {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// opponentOf returns the other registered participant, or model.UnknownPlayer.
func (s *Session) opponentOf(username string) string {
	for _, name := range s.order {
		if name != username {
			return name
		}
	}
	return model.UnknownPlayer
}

func (s *Session) allReady() bool {
	if len(s.participants) == 0 {
		return false
	}
	for _, p := range s.participants {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (s *Session) participantViews() []ParticipantView {
	views := make([]ParticipantView, 0, len(s.order))
	for _, name := range s.order {
		views = append(views, ParticipantView{
			Username: name,
			Ready:    s.participants[name].Ready,
		})
	}
	return views
}

// Snapshot is a read-only copy of a live session.
type Snapshot struct {
	RoomID        string            `json:"roomId"`
	State         model.RoomState   `json:"state"`
	TimeRemaining int               `json:"timeRemaining"`
	Participants  []ParticipantView `json:"participants"`
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		RoomID:        s.roomID,
		State:         s.state,
		TimeRemaining: s.timeRemaining,
		Participants:  s.participantViews(),
	}
}
