package repository

import (
	"context"
	"time"

	"codeduel/internal/model"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMatchListLimit = 20

// MatchRepo stores finished duels.
type MatchRepo interface {
	Create(ctx context.Context, match *model.Match) error
	ListByUser(ctx context.Context, username string, limit int) ([]*model.Match, error)
	EnsureIndexes(ctx context.Context) error
}

type matchRepo struct {
	collection *mongo.Collection
}

func NewMatchRepo(db *mongo.Database) MatchRepo {
	return &matchRepo{
		collection: db.Collection("matches"),
	}
}

func (r *matchRepo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "winner", Value: 1}, {Key: "finishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "loser", Value: 1}, {Key: "finishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "roomId", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Debug().Str("collection", r.collection.Name()).Msg("indexes ensured")
	return nil
}

func (r *matchRepo) Create(ctx context.Context, match *model.Match) error {
	if match.FinishedAt.IsZero() {
		match.FinishedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, match)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		match.ID = oid.Hex()
	}
	return nil
}

// ListByUser returns the user's most recent matches, won or lost.
func (r *matchRepo) ListByUser(ctx context.Context, username string, limit int) ([]*model.Match, error) {
	if limit <= 0 {
		limit = defaultMatchListLimit
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"winner": username},
		bson.M{"loser": username},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "finishedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	matches := []*model.Match{}
	if err = cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
