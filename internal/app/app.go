package app

import (
	"context"
	"fmt"
	"time"

	"codeduel/internal/cache"
	"codeduel/internal/config"
	"codeduel/internal/events"
	"codeduel/internal/repository"
	"codeduel/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// App holds the connected stores and the services built on them.
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client

	RoomRepo    repository.RoomRepo
	MatchRepo   repository.MatchRepo
	RoomCache   cache.RoomCache
	Leaderboard cache.LeaderboardCache
	Publisher   events.Publisher

	AuthService  *service.AuthService
	RoomService  *service.RoomService
	MatchService *service.MatchService
}

// New connects to MongoDB, Redis and (optionally) NATS and wires the
// services. Any connection failure closes what was already opened.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	a.Mongo = mongoClient

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := a.Redis.Ping(pingCtx).Err(); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ping Redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	if cfg.NATSURL != "" {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.Subject = cfg.NATSSubject
		pub, err := events.NewNATSPublisher(natsCfg)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Publisher = pub
		log.Info().Str("url", cfg.NATSURL).Str("subject", cfg.NATSSubject).Msg("connected to NATS")
	} else {
		a.Publisher = events.NopPublisher{}
		log.Info().Msg("NATS_URL not set, match events disabled")
	}

	db := mongoClient.Database(cfg.MongoDatabase)
	a.RoomRepo = repository.NewRoomRepo(db)
	a.MatchRepo = repository.NewMatchRepo(db)
	if err := a.RoomRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure room indexes")
	}
	if err := a.MatchRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure match indexes")
	}

	a.RoomCache = cache.NewRoomCache(a.Redis, cfg.RoomCacheTTL)
	a.Leaderboard = cache.NewLeaderboardCache(a.Redis)

	a.AuthService = service.NewAuthService(cfg.JWTSecret)
	a.RoomService = service.NewRoomService(a.RoomRepo, a.RoomCache)
	a.MatchService = service.NewMatchService(a.MatchRepo, a.Leaderboard, a.Publisher)

	return a, nil
}

// Close releases every open connection.
func (a *App) Close(ctx context.Context) {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close Redis")
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect MongoDB")
		}
	}
}
