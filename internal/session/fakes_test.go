package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeduel/internal/model"
)

type fakeRooms struct {
	mu      sync.Mutex
	rooms   map[string]*model.Room
	saves   int
	saveErr error
	findErr error
}

func newFakeRooms(rooms ...*model.Room) *fakeRooms {
	f := &fakeRooms{rooms: make(map[string]*model.Room)}
	for _, r := range rooms {
		f.rooms[r.RoomID] = r
	}
	return f
}

func (f *fakeRooms) FindByRoomID(ctx context.Context, roomID string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRooms) Save(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *room
	f.rooms[room.RoomID] = &cp
	f.saves++
	return nil
}

func (f *fakeRooms) state(roomID string) model.RoomState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[roomID].State
}

func (f *fakeRooms) failSaves(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

type fakeMatches struct {
	mu      sync.Mutex
	created []model.MatchResult
	err     error
}

func (f *fakeMatches) Create(ctx context.Context, result model.MatchResult) (*model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, result)
	return &model.Match{
		RoomID:     result.RoomID,
		Winner:     result.Winner,
		Loser:      result.Loser,
		TimeTaken:  result.TimeTaken,
		FinishedAt: time.Now(),
	}, nil
}

func (f *fakeMatches) all() []model.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.MatchResult(nil), f.created...)
}

type delivery struct {
	connID  string
	msgType string
	payload interface{}
}

// fakeTransport resolves room broadcasts to per-connection deliveries so
// tests can assert who received what.
type fakeTransport struct {
	mu         sync.Mutex
	subs       map[string][]string
	deliveries []delivery
	published  map[string]int
	events     chan string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		subs:      make(map[string][]string),
		published: make(map[string]int),
		events:    make(chan string, 4096),
	}
}

func (f *fakeTransport) Subscribe(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range f.subs[roomID] {
		if id == connID {
			return
		}
	}
	f.subs[roomID] = append(f.subs[roomID], connID)
}

// drop simulates the hub forgetting a closed connection.
func (f *fakeTransport) drop(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conns := f.subs[roomID]
	for i, id := range conns {
		if id == connID {
			f.subs[roomID] = append(conns[:i], conns[i+1:]...)
			return
		}
	}
}

func (f *fakeTransport) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	f.BroadcastToRoomExcept(roomID, "", msgType, payload)
}

func (f *fakeTransport) BroadcastToRoomExcept(roomID, exceptConnID string, msgType string, payload interface{}) {
	f.mu.Lock()
	for _, id := range f.subs[roomID] {
		if id == exceptConnID {
			continue
		}
		f.deliveries = append(f.deliveries, delivery{connID: id, msgType: msgType, payload: payload})
	}
	f.published[msgType]++
	f.mu.Unlock()
	f.events <- msgType
}

func (f *fakeTransport) SendToConnection(connID string, msgType string, payload interface{}) {
	f.mu.Lock()
	f.deliveries = append(f.deliveries, delivery{connID: connID, msgType: msgType, payload: payload})
	f.published[msgType]++
	f.mu.Unlock()
	f.events <- msgType
}

// received returns every payload of msgType delivered to connID.
func (f *fakeTransport) received(connID, msgType string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []interface{}
	for _, d := range f.deliveries {
		if d.connID == connID && d.msgType == msgType {
			out = append(out, d.payload)
		}
	}
	return out
}

// emitted counts how many times msgType was published, regardless of audience.
func (f *fakeTransport) emitted(msgType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[msgType]
}

// waitFor blocks until a message of msgType is published.
func (f *fakeTransport) waitFor(t *testing.T, msgType string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-f.events:
			if got == msgType {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", msgType)
		}
	}
}

var errBoom = errors.New("boom")
