package service

import (
	"context"
	"errors"
	"sync"

	"codeduel/internal/cache"
	"codeduel/internal/model"
)

var errBoom = errors.New("boom")

type fakeRoomRepo struct {
	mu      sync.Mutex
	rooms   map[string]model.Room
	finds   int
	saveErr error
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]model.Room)}
}

func (f *fakeRoomRepo) Create(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[room.RoomID]; ok {
		return errors.New("duplicate room")
	}
	f.rooms[room.RoomID] = *room
	return nil
}

func (f *fakeRoomRepo) FindByRoomID(ctx context.Context, roomID string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRoomRepo) Save(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rooms[room.RoomID] = *room
	return nil
}

func (f *fakeRoomRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeRoomCache struct {
	mu     sync.Mutex
	rooms  map[string]model.Room
	getErr error
	setErr error
}

func newFakeRoomCache() *fakeRoomCache {
	return &fakeRoomCache{rooms: make(map[string]model.Room)}
}

func (f *fakeRoomCache) Get(ctx context.Context, roomID string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRoomCache) Set(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.rooms[room.RoomID] = *room
	return nil
}

func (f *fakeRoomCache) Delete(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, roomID)
	return nil
}

func (f *fakeRoomCache) cached(roomID string) (model.Room, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	return r, ok
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches []*model.Match
	err     error
}

func (f *fakeMatchRepo) Create(ctx context.Context, match *model.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	match.ID = "m1"
	f.matches = append(f.matches, match)
	return nil
}

func (f *fakeMatchRepo) ListByUser(ctx context.Context, username string, limit int) ([]*model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Match
	for _, m := range f.matches {
		if m.Winner == username || m.Loser == username {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeLeaderboard struct {
	mu   sync.Mutex
	wins map[string]int
	err  error
}

func (f *fakeLeaderboard) IncrementWins(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.wins == nil {
		f.wins = make(map[string]int)
	}
	f.wins[username]++
	return nil
}

func (f *fakeLeaderboard) GetTop(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	return nil, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*model.Match
	err       error
}

func (f *fakePublisher) PublishMatchFinished(ctx context.Context, match *model.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, match)
	return nil
}

func (f *fakePublisher) Close() {}
