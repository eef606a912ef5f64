package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"codeduel/internal/cache"
	"codeduel/internal/model"
	"codeduel/internal/repository"

	"github.com/rs/zerolog/log"
)

// CreateRoomInput describes a room to seed.
type CreateRoomInput struct {
	Host             string
	HostUsername     string
	Opponent         string
	OpponentUsername string
	Challenge        string
	ExpectedOutput   string
	TimeLimit        int
}

// RoomService reads rooms through the Redis cache and writes them to MongoDB.
type RoomService struct {
	roomRepo  repository.RoomRepo
	roomCache cache.RoomCache
}

func NewRoomService(roomRepo repository.RoomRepo, roomCache cache.RoomCache) *RoomService {
	return &RoomService{
		roomRepo:  roomRepo,
		roomCache: roomCache,
	}
}

// FindByRoomID returns the room, or (nil, nil) if it does not exist. Cache
// failures fall through to MongoDB.
func (s *RoomService) FindByRoomID(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.roomCache.Get(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("room cache read failed")
	}
	if room != nil {
		return room, nil
	}

	room, err = s.roomRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, nil
	}

	if err := s.roomCache.Set(ctx, room); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("room cache write failed")
	}
	return room, nil
}

// Save persists the room and refreshes the cached copy. A failed cache
// refresh evicts the entry so readers never see a stale state.
func (s *RoomService) Save(ctx context.Context, room *model.Room) error {
	if err := s.roomRepo.Save(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	if err := s.roomCache.Set(ctx, room); err != nil {
		log.Warn().Err(err).Str("room_id", room.RoomID).Msg("room cache refresh failed")
		if err := s.roomCache.Delete(ctx, room.RoomID); err != nil {
			log.Error().Err(err).Str("room_id", room.RoomID).Msg("room cache evict failed")
		}
	}
	return nil
}

// CreateRoom persists a new WAITING room with a generated id and password.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*model.Room, error) {
	if in.HostUsername == "" {
		return nil, fmt.Errorf("host username is required")
	}

	roomID, err := randomHex(3)
	if err != nil {
		return nil, fmt.Errorf("failed to generate room id: %w", err)
	}
	password, err := randomHex(4)
	if err != nil {
		return nil, fmt.Errorf("failed to generate room password: %w", err)
	}

	room := &model.Room{
		RoomID:           roomID,
		Password:         password,
		Host:             in.Host,
		HostUsername:     in.HostUsername,
		Opponent:         in.Opponent,
		OpponentUsername: in.OpponentUsername,
		Challenge:        in.Challenge,
		ExpectedOutput:   in.ExpectedOutput,
		TimeLimit:        model.ClampTimeLimit(in.TimeLimit),
		MaxPlayers:       model.DefaultMaxPlayers,
		State:            model.RoomWaiting,
		CreatedAt:        time.Now(),
	}
	if room.Challenge == "" {
		room.Challenge = model.DefaultChallenge
	}
	if room.ExpectedOutput == "" {
		room.ExpectedOutput = model.DefaultExpectedOutput
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if err := s.roomCache.Set(ctx, room); err != nil {
		log.Warn().Err(err).Str("room_id", room.RoomID).Msg("room cache write failed")
	}
	return room, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
