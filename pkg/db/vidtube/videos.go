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

func (dbService *VidTubeDBService) CreateIndexForVideos() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionVideos().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "owner", Value: 1}},
			},
			{
				Keys: bson.D{{Key: "title", Value: "text"}},
			},
			{
				Keys: bson.D{{Key: "createdAt", Value: -1}},
			},
		},
	)
	return err
}

func (dbService *VidTubeDBService) CreateVideo(ctx context.Context, video contentTypes.Video) (contentTypes.Video, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	now := time.Now().Unix()
	video.ID = primitive.NewObjectID()
	video.CreatedAt = now
	video.UpdatedAt = now

	_, err := dbService.collectionVideos().InsertOne(ctx, video)
	return video, err
}

// lookupOwnerStage joins the owning account's public fields into ownerInfo.
func lookupOwnerStage() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_USERS,
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "ownerInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"username": 1, "fullName": 1, "avatar": 1}},
			},
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{"ownerInfo": bson.M{"$first": "$ownerInfo"}}}},
	}
}

func (dbService *VidTubeDBService) GetVideoByID(ctx context.Context, videoID primitive.ObjectID) (contentTypes.VideoWithOwner, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": videoID}}},
	}
	pipeline = append(pipeline, lookupOwnerStage()...)

	cursor, err := dbService.collectionVideos().Aggregate(ctx, pipeline)
	if err != nil {
		return contentTypes.VideoWithOwner{}, err
	}
	defer cursor.Close(ctx)

	var videos []contentTypes.VideoWithOwner
	if err := cursor.All(ctx, &videos); err != nil {
		return contentTypes.VideoWithOwner{}, err
	}
	if len(videos) == 0 {
		return contentTypes.VideoWithOwner{}, mongo.ErrNoDocuments
	}
	return videos[0], nil
}

func (dbService *VidTubeDBService) IncrementVideoViews(ctx context.Context, videoID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_, err := dbService.collectionVideos().UpdateOne(ctx, bson.M{"_id": videoID}, bson.M{
		"$inc": bson.M{"views": 1},
	})
	return err
}

// UpdateVideoDetails applies the given fields only when the video belongs
// to ownerID. mongo.ErrNoDocuments means not found or not the owner.
func (dbService *VidTubeDBService) UpdateVideoDetails(ctx context.Context, videoID primitive.ObjectID, ownerID primitive.ObjectID, fields bson.M) (contentTypes.Video, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	fields["updatedAt"] = time.Now().Unix()

	var video contentTypes.Video
	err := dbService.collectionVideos().FindOneAndUpdate(ctx,
		bson.M{"_id": videoID, "owner": ownerID},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&video)
	return video, err
}

func (dbService *VidTubeDBService) DeleteVideo(ctx context.Context, videoID primitive.ObjectID, ownerID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionVideos().DeleteOne(ctx, bson.M{"_id": videoID, "owner": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// TogglePublishStatus flips isPublished in a single pipeline update so
// concurrent toggles never read a stale value.
func (dbService *VidTubeDBService) TogglePublishStatus(ctx context.Context, videoID primitive.ObjectID, ownerID primitive.ObjectID) (contentTypes.Video, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	update := bson.A{
		bson.M{"$set": bson.M{
			"isPublished": bson.M{"$not": "$isPublished"},
			"updatedAt":   time.Now().Unix(),
		}},
	}

	var video contentTypes.Video
	err := dbService.collectionVideos().FindOneAndUpdate(ctx,
		bson.M{"_id": videoID, "owner": ownerID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&video)
	return video, err
}

// FindVideos lists published videos with optional title search, owner
// filter and sort, plus the total count for pagination.
func (dbService *VidTubeDBService) FindVideos(ctx context.Context, query string, ownerID *primitive.ObjectID, sortBy string, sortAsc bool, page int64, limit int64) (contentTypes.VideoPage, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"isPublished": true}
	if query != "" {
		filter["title"] = bson.M{"$regex": query, "$options": "i"}
	}
	if ownerID != nil {
		filter["owner"] = *ownerID
	}

	total, err := dbService.collectionVideos().CountDocuments(ctx, filter)
	if err != nil {
		return contentTypes.VideoPage{}, err
	}

	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortDir := -1
	if sortAsc {
		sortDir = 1
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: sortBy, Value: sortDir}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, lookupOwnerStage()...)

	cursor, err := dbService.collectionVideos().Aggregate(ctx, pipeline)
	if err != nil {
		return contentTypes.VideoPage{}, err
	}
	defer cursor.Close(ctx)

	videos := []contentTypes.VideoWithOwner{}
	if err := cursor.All(ctx, &videos); err != nil {
		return contentTypes.VideoPage{}, err
	}

	return contentTypes.VideoPage{
		Videos:     videos,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}
