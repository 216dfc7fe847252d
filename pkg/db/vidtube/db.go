package vidtubedb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/vidtube-backend/pkg/db"
)

// collection names
const (
	COLLECTION_NAME_USERS         = "users"
	COLLECTION_NAME_VIDEOS        = "videos"
	COLLECTION_NAME_COMMENTS      = "comments"
	COLLECTION_NAME_TWEETS        = "tweets"
	COLLECTION_NAME_PLAYLISTS     = "playlists"
	COLLECTION_NAME_SUBSCRIPTIONS = "subscriptions"
	COLLECTION_NAME_LIKES         = "likes"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrRefreshTokenMismatch is the revocation signal: the presented
	// refresh token is not the account's current one.
	ErrRefreshTokenMismatch = errors.New("refresh token does not match the stored one")
)

type VidTubeDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
}

func NewVidTubeDBService(configs db.DBConfig) (*VidTubeDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	dbService := &VidTubeDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
	}

	if configs.RunIndexCreation {
		dbService.CreateDefaultIndexes()
	}
	return dbService, nil
}

func (dbService *VidTubeDBService) getDBName() string {
	return dbService.DBNamePrefix + "vidtube"
}

// getContext derives the storage deadline from the caller's context so
// request cancellation propagates into every storage operation.
func (dbService *VidTubeDBService) getContext(parent context.Context) (ctx context.Context, cancel context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, time.Duration(dbService.timeout)*time.Second)
}

func (dbService *VidTubeDBService) collectionUsers() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_USERS)
}

func (dbService *VidTubeDBService) collectionVideos() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_VIDEOS)
}

func (dbService *VidTubeDBService) collectionComments() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_COMMENTS)
}

func (dbService *VidTubeDBService) collectionTweets() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_TWEETS)
}

func (dbService *VidTubeDBService) collectionPlaylists() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_PLAYLISTS)
}

func (dbService *VidTubeDBService) collectionSubscriptions() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_SUBSCRIPTIONS)
}

func (dbService *VidTubeDBService) collectionLikes() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_LIKES)
}

func (dbService *VidTubeDBService) CreateDefaultIndexes() {
	if err := dbService.CreateIndexForUsers(); err != nil {
		slog.Error("failed to create indexes for users", slog.String("error", err.Error()))
	}
	if err := dbService.CreateIndexForVideos(); err != nil {
		slog.Error("failed to create indexes for videos", slog.String("error", err.Error()))
	}
	if err := dbService.CreateIndexForComments(); err != nil {
		slog.Error("failed to create indexes for comments", slog.String("error", err.Error()))
	}
	if err := dbService.CreateIndexForTweets(); err != nil {
		slog.Error("failed to create indexes for tweets", slog.String("error", err.Error()))
	}
	if err := dbService.CreateIndexForPlaylists(); err != nil {
		slog.Error("failed to create indexes for playlists", slog.String("error", err.Error()))
	}
	if err := dbService.CreateIndexForSubscriptions(); err != nil {
		slog.Error("failed to create indexes for subscriptions", slog.String("error", err.Error()))
	}
	if err := dbService.CreateIndexForLikes(); err != nil {
		slog.Error("failed to create indexes for likes", slog.String("error", err.Error()))
	}
}
