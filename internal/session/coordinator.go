package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeduel/internal/model"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// RoomStore is the persisted room collaborator. FindByRoomID returns
// (nil, nil) when the room does not exist.
type RoomStore interface {
	FindByRoomID(ctx context.Context, roomID string) (*model.Room, error)
	Save(ctx context.Context, room *model.Room) error
}

// MatchStore records concluded duels.
type MatchStore interface {
	Create(ctx context.Context, result model.MatchResult) (*model.Match, error)
}

// Transport is the realtime publish/subscribe channel (avoids import cycle
// with the websocket hub).
type Transport interface {
	Subscribe(roomID, connID string)
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToRoomExcept(roomID, exceptConnID string, msgType string, payload interface{})
	SendToConnection(connID string, msgType string, payload interface{})
}

// Actor identifies who sent an inbound action and over which connection.
type Actor struct {
	RoomID       string
	Username     string
	ConnectionID string
}

type Config struct {
	TickInterval   time.Duration
	PersistTimeout time.Duration
	// DefaultTimeLimit applies to rooms stored without a limit, in minutes.
	DefaultTimeLimit int
}

func DefaultConfig() Config {
	return Config{
		TickInterval:     time.Second,
		PersistTimeout:   5 * time.Second,
		DefaultTimeLimit: model.DefaultTimeLimit,
	}
}

// Coordinator is the single writer of session state. Every action locks the
// room's session for its whole duration, persistence included, so events for
// one room never interleave while rooms progress independently.
type Coordinator struct {
	registry  *Registry
	rooms     RoomStore
	matches   MatchStore
	transport Transport
	clock     clockwork.Clock
	cfg       Config
}

// NewCoordinator wires a coordinator. A nil clock means the real clock.
func NewCoordinator(cfg Config, rooms RoomStore, matches MatchStore, transport Transport, clock clockwork.Clock) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if cfg.DefaultTimeLimit <= 0 {
		cfg.DefaultTimeLimit = model.DefaultTimeLimit
	}
	return &Coordinator{
		registry:  NewRegistry(clock),
		rooms:     rooms,
		matches:   matches,
		transport: transport,
		clock:     clock,
		cfg:       cfg,
	}
}

// Registry exposes the live session registry.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// acquire returns the live, unfinished session for roomID with its lock held.
func (c *Coordinator) acquire(roomID string) (*Session, error) {
	s, ok := c.registry.Get(roomID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return nil, ErrSessionFinished
	}
	s.lastActive = c.clock.Now()
	return s, nil
}

// acquireOrCreate is acquire for joins. Finished sessions leave the registry
// before their lock is released, so the retry always reaches a live one.
func (c *Coordinator) acquireOrCreate(roomID string, timeLimitSeconds int) *Session {
	for {
		s := c.registry.GetOrCreate(roomID, timeLimitSeconds)
		s.mu.Lock()
		if !s.finished {
			s.lastActive = c.clock.Now()
			return s
		}
		s.mu.Unlock()
	}
}

// Join registers or refreshes a participant and broadcasts the room snapshot.
// The room's host is ready on arrival.
func (c *Coordinator) Join(ctx context.Context, a Actor) error {
	room, err := c.rooms.FindByRoomID(ctx, a.RoomID)
	if err != nil {
		return fmt.Errorf("find room %s: %w", a.RoomID, err)
	}
	if room == nil {
		return ErrRoomNotFound
	}

	s := c.acquireOrCreate(a.RoomID, c.timeLimitSeconds(room))
	defer s.mu.Unlock()

	if _, known := s.participants[a.Username]; !known && len(s.participants) >= MaxParticipants {
		return ErrRoomFull
	}

	s.room = room
	s.addParticipant(a.Username, &Participant{
		ConnectionID: a.ConnectionID,
		Ready:        a.Username == room.HostUsername,
		Connected:    true,
	})

	c.transport.Subscribe(a.RoomID, a.ConnectionID)
	c.broadcastRoomUpdate(s)

	log.Info().
		Str("room_id", a.RoomID).
		Str("username", a.Username).
		Str("connection_id", a.ConnectionID).
		Int("participants", len(s.participants)).
		Msg("participant joined")
	return nil
}

// Ready marks a participant ready and records the room as ready.
func (c *Coordinator) Ready(ctx context.Context, a Actor) error {
	s, err := c.acquire(a.RoomID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	p, ok := s.participants[a.Username]
	if !ok {
		return ErrUnknownParticipant
	}
	if s.state == model.RoomPlaying {
		return ErrAlreadyPlaying
	}

	if err := c.persistRoomState(ctx, s, model.RoomReady); err != nil {
		return fmt.Errorf("mark room %s ready: %w", a.RoomID, err)
	}

	p.Ready = true
	s.state = model.RoomReady

	c.broadcastRoomUpdate(s)
	return nil
}

// Start moves a fully ready session to PLAYING and starts its countdown.
func (c *Coordinator) Start(ctx context.Context, roomID string) error {
	s, err := c.acquire(roomID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.state == model.RoomPlaying {
		return ErrAlreadyPlaying
	}
	if !s.allReady() {
		return ErrNotAllReady
	}

	if err := c.persistRoomState(ctx, s, model.RoomPlaying); err != nil {
		return fmt.Errorf("start room %s: %w", roomID, err)
	}

	s.state = model.RoomPlaying
	s.duration = c.timeLimitSeconds(s.room)
	s.timeRemaining = s.duration

	c.transport.BroadcastToRoom(roomID, MsgGameStarted, GameStarted{
		Challenge:      s.room.Challenge,
		ExpectedOutput: s.room.ExpectedOutput,
		TimeLimit:      s.duration / 60,
	})

	cd := newCountdown(c.clock, c.cfg.TickInterval)
	s.timer = cd
	go cd.run(func() { c.tick(s, cd) })

	log.Info().
		Str("room_id", roomID).
		Int("time_limit_sec", s.duration).
		Msg("match started")
	return nil
}

// tick advances the countdown by one second and ends the match at zero.
func (c *Coordinator) tick(s *Session, cd *countdown) {
	defer recoverPanic(s.roomID, "tick")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.timer != cd {
		return
	}

	s.timeRemaining--
	c.transport.BroadcastToRoom(s.roomID, MsgTimerUpdate, TimerUpdate{TimeRemaining: s.timeRemaining})

	if s.timeRemaining > 0 {
		return
	}

	c.finish(context.Background(), s, outcome{
		gameOver: GameOver{
			Reason:  ReasonTimeUp,
			Message: "Time is up! No winner this round.",
		},
	})
}

// UpdateCode stores the sender's code and relays its binary form to everyone
// else in the room.
func (c *Coordinator) UpdateCode(ctx context.Context, a Actor, code string) error {
	s, err := c.acquire(a.RoomID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	p, ok := s.participants[a.Username]
	if !ok {
		return ErrUnknownParticipant
	}
	p.Code = code

	c.transport.BroadcastToRoomExcept(a.RoomID, a.ConnectionID, MsgOpponentCodeUpdate, OpponentCodeUpdate{
		Username:   a.Username,
		BinaryCode: EncodeBinary(code),
	})
	return nil
}

// Run echoes the trimmed code back to the requester. Nothing is executed or
// rendered here; a real sandbox would plug in at this point.
func (c *Coordinator) Run(a Actor, code string) {
	c.transport.SendToConnection(a.ConnectionID, MsgCodeOutput, CodeOutput{
		Output:  strings.TrimSpace(code),
		Success: true,
	})
}

// Submit arbitrates a submission. The first correct one finishes the match;
// a wrong one is reported to the submitter only.
func (c *Coordinator) Submit(ctx context.Context, a Actor, code string) error {
	s, err := c.acquire(a.RoomID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.participants[a.Username]; !ok {
		return ErrUnknownParticipant
	}
	if s.state != model.RoomPlaying {
		return ErrNotPlaying
	}

	if !OutputMatches(code, s.room.ExpectedOutput) {
		c.transport.SendToConnection(a.ConnectionID, MsgSubmitResult, SubmitResult{
			Correct: false,
			Message: "Output does not match. Keep trying!",
		})
		return nil
	}

	loser := s.opponentOf(a.Username)
	timeTaken := s.duration - s.timeRemaining

	c.finish(ctx, s, outcome{
		match: &model.MatchResult{
			RoomID:    a.RoomID,
			Winner:    a.Username,
			Loser:     loser,
			TimeTaken: timeTaken,
		},
		gameOver: GameOver{
			Reason:    ReasonWinner,
			Winner:    a.Username,
			Loser:     loser,
			TimeTaken: &timeTaken,
			Message:   fmt.Sprintf("🏆 %s wins!", a.Username),
		},
	})
	return nil
}

// Disconnect resolves a dropped connection. Mid-match it is a forfeit;
// before the match the participant simply leaves.
func (c *Coordinator) Disconnect(ctx context.Context, a Actor) error {
	s, err := c.acquire(a.RoomID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	p, ok := s.participants[a.Username]
	if !ok {
		return ErrUnknownParticipant
	}
	if a.ConnectionID != "" && p.ConnectionID != a.ConnectionID {
		return ErrStaleConnection
	}

	if s.state == model.RoomPlaying {
		winner := s.opponentOf(a.Username)
		// Forfeits record zero elapsed time.
		c.finish(ctx, s, outcome{
			match: &model.MatchResult{
				RoomID:    a.RoomID,
				Winner:    winner,
				Loser:     a.Username,
				TimeTaken: 0,
			},
			gameOver: GameOver{
				Reason:  ReasonDisconnect,
				Winner:  winner,
				Loser:   a.Username,
				Message: fmt.Sprintf("🏆 %s wins! %s disconnected.", winner, a.Username),
			},
		})
		return nil
	}

	p.Connected = false
	s.removeParticipant(a.Username)

	c.transport.BroadcastToRoom(a.RoomID, MsgPlayerDisconnected, PlayerDisconnected{
		Username: a.Username,
		Message:  fmt.Sprintf("%s has left the room", a.Username),
	})

	log.Info().
		Str("room_id", a.RoomID).
		Str("username", a.Username).
		Int("participants", len(s.participants)).
		Msg("participant left before match")
	return nil
}

// Snapshot returns a copy of the live session for roomID.
func (c *Coordinator) Snapshot(roomID string) (Snapshot, bool) {
	s, ok := c.registry.Get(roomID)
	if !ok {
		return Snapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

type outcome struct {
	match    *model.MatchResult
	gameOver GameOver
}

// finish is the only terminal path. The caller holds s.mu. It flips the
// finished latch, cancels the countdown before any other side effect,
// persists, broadcasts exactly one game-over and drops the session. Returns
// false if the session had already finished.
func (c *Coordinator) finish(ctx context.Context, s *Session, o outcome) bool {
	if s.finished {
		return false
	}
	s.finished = true
	s.state = model.RoomFinished

	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}

	logger := log.With().
		Str("room_id", s.roomID).
		Str("reason", o.gameOver.Reason).
		Logger()

	// The caller's deadline may be spent waiting on s.mu; the result is saved
	// under its own budget.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PersistTimeout)
	defer cancel()

	// Persistence failures are logged and skipped; the latch stays set so a
	// retry can never produce a second result.
	if err := c.persistRoomState(ctx, s, model.RoomFinished); err != nil {
		logger.Error().Err(err).Msg("failed to persist finished room state")
	}
	if o.match != nil {
		if _, err := c.matches.Create(ctx, *o.match); err != nil {
			logger.Error().Err(err).
				Str("winner", o.match.Winner).
				Str("loser", o.match.Loser).
				Msg("failed to record match")
		}
	}

	c.transport.BroadcastToRoom(s.roomID, MsgGameOver, o.gameOver)
	c.registry.removeSession(s)

	logger.Info().
		Str("winner", o.gameOver.Winner).
		Str("loser", o.gameOver.Loser).
		Msg("match finished")
	return true
}

// persistRoomState reloads the room, sets its state and saves it. The fresh
// copy replaces the session's snapshot.
func (c *Coordinator) persistRoomState(ctx context.Context, s *Session, state model.RoomState) error {
	room, err := c.rooms.FindByRoomID(ctx, s.roomID)
	if err != nil {
		return fmt.Errorf("find room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	room.State = state
	if err := c.rooms.Save(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	s.room = room
	return nil
}

func (c *Coordinator) timeLimitSeconds(room *model.Room) int {
	if room.TimeLimit <= 0 {
		return c.cfg.DefaultTimeLimit * 60
	}
	return room.TimeLimitSeconds()
}

func (c *Coordinator) broadcastRoomUpdate(s *Session) {
	update := RoomUpdate{
		State:        s.state,
		Participants: s.participantViews(),
	}
	if s.room != nil {
		update.HostUsername = s.room.HostUsername
		update.OpponentUsername = s.room.OpponentUsername
	}
	c.transport.BroadcastToRoom(s.roomID, MsgRoomUpdate, update)
}

func recoverPanic(roomID, op string) {
	if r := recover(); r != nil {
		log.Error().
			Str("room_id", roomID).
			Str("op", op).
			Interface("panic", r).
			Msg("recovered from panic")
	}
}
