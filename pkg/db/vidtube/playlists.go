package vidtubedb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	contentTypes "github.com/vidtube/vidtube-backend/pkg/content/types"
)

func (dbService *VidTubeDBService) CreateIndexForPlaylists() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionPlaylists().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "owner", Value: 1}},
			},
		},
	)
	return err
}

func (dbService *VidTubeDBService) CreatePlaylist(ctx context.Context, playlist contentTypes.Playlist) (contentTypes.Playlist, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	now := time.Now().Unix()
	playlist.ID = primitive.NewObjectID()
	if playlist.Videos == nil {
		playlist.Videos = []primitive.ObjectID{}
	}
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	_, err := dbService.collectionPlaylists().InsertOne(ctx, playlist)
	return playlist, err
}

func (dbService *VidTubeDBService) GetPlaylistByID(ctx context.Context, playlistID primitive.ObjectID) (contentTypes.PlaylistWithVideos, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": playlistID}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_VIDEOS,
			"localField":   "videos",
			"foreignField": "_id",
			"as":           "videoDocs",
		}}},
	}
	pipeline = append(pipeline, lookupOwnerStage()...)

	cursor, err := dbService.collectionPlaylists().Aggregate(ctx, pipeline)
	if err != nil {
		return contentTypes.PlaylistWithVideos{}, err
	}
	defer cursor.Close(ctx)

	var playlists []contentTypes.PlaylistWithVideos
	if err := cursor.All(ctx, &playlists); err != nil {
		return contentTypes.PlaylistWithVideos{}, err
	}
	if len(playlists) == 0 {
		return contentTypes.PlaylistWithVideos{}, mongo.ErrNoDocuments
	}
	return playlists[0], nil
}

func (dbService *VidTubeDBService) GetPlaylistsForUser(ctx context.Context, ownerID primitive.ObjectID) ([]contentTypes.Playlist, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	cursor, err := dbService.collectionPlaylists().Find(ctx,
		bson.M{"owner": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	playlists := []contentTypes.Playlist{}
	if err := cursor.All(ctx, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// AddVideoToPlaylist appends the video if absent. $addToSet keeps the
// operation idempotent under retries.
func (dbService *VidTubeDBService) AddVideoToPlaylist(ctx context.Context, playlistID primitive.ObjectID, ownerID primitive.ObjectID, videoID primitive.ObjectID) (contentTypes.Playlist, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var playlist contentTypes.Playlist
	err := dbService.collectionPlaylists().FindOneAndUpdate(ctx,
		bson.M{"_id": playlistID, "owner": ownerID},
		bson.M{
			"$addToSet": bson.M{"videos": videoID},
			"$set":      bson.M{"updatedAt": time.Now().Unix()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&playlist)
	return playlist, err
}

func (dbService *VidTubeDBService) RemoveVideoFromPlaylist(ctx context.Context, playlistID primitive.ObjectID, ownerID primitive.ObjectID, videoID primitive.ObjectID) (contentTypes.Playlist, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var playlist contentTypes.Playlist
	err := dbService.collectionPlaylists().FindOneAndUpdate(ctx,
		bson.M{"_id": playlistID, "owner": ownerID},
		bson.M{
			"$pull": bson.M{"videos": videoID},
			"$set":  bson.M{"updatedAt": time.Now().Unix()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&playlist)
	return playlist, err
}

func (dbService *VidTubeDBService) UpdatePlaylistDetails(ctx context.Context, playlistID primitive.ObjectID, ownerID primitive.ObjectID, fields bson.M) (contentTypes.Playlist, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	fields["updatedAt"] = time.Now().Unix()

	var playlist contentTypes.Playlist
	err := dbService.collectionPlaylists().FindOneAndUpdate(ctx,
		bson.M{"_id": playlistID, "owner": ownerID},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&playlist)
	return playlist, err
}

func (dbService *VidTubeDBService) DeletePlaylist(ctx context.Context, playlistID primitive.ObjectID, ownerID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionPlaylists().DeleteOne(ctx, bson.M{"_id": playlistID, "owner": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
