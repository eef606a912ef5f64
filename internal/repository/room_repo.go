package repository

import (
	"context"
	"time"

	"codeduel/internal/model"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomRepo persists duel rooms.
type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	FindByRoomID(ctx context.Context, roomID string) (*model.Room, error)
	Save(ctx context.Context, room *model.Room) error
	EnsureIndexes(ctx context.Context) error
}

type roomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{
		collection: db.Collection("rooms"),
	}
}

func (r *roomRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	log.Debug().Str("collection", r.collection.Name()).Msg("indexes ensured")
	return nil
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	now := time.Now()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, room)
	return err
}

func (r *roomRepo) FindByRoomID(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// Save replaces the stored room, inserting it if missing.
func (r *roomRepo) Save(ctx context.Context, room *model.Room) error {
	room.UpdatedAt = time.Now()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"roomId": room.RoomID}, room, opts)
	return err
}
