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

func (dbService *VidTubeDBService) CreateIndexForLikes() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionLikes().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "likedBy", Value: 1},
					{Key: "targetType", Value: 1},
					{Key: "target", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "targetType", Value: 1}, {Key: "target", Value: 1}},
			},
		},
	)
	return err
}

// ToggleLike likes when no like exists and removes it otherwise. Returns
// true when the target is liked after the call. The unique
// (likedBy, targetType, target) index absorbs concurrent double-likes.
func (dbService *VidTubeDBService) ToggleLike(ctx context.Context, userID primitive.ObjectID, targetType contentTypes.LikeTargetType, targetID primitive.ObjectID) (bool, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"likedBy": userID, "targetType": targetType, "target": targetID}

	res, err := dbService.collectionLikes().DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = dbService.collectionLikes().InsertOne(ctx, contentTypes.Like{
		TargetType: targetType,
		Target:     targetID,
		LikedBy:    userID,
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

func (dbService *VidTubeDBService) CountLikes(ctx context.Context, targetType contentTypes.LikeTargetType, targetID primitive.ObjectID) (int64, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	return dbService.collectionLikes().CountDocuments(ctx,
		bson.M{"targetType": targetType, "target": targetID})
}

// GetLikedVideos lists the videos a user liked, newest like first.
func (dbService *VidTubeDBService) GetLikedVideos(ctx context.Context, userID primitive.ObjectID) ([]contentTypes.VideoWithOwner, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"likedBy":    userID,
			"targetType": contentTypes.LikeTargetVideo,
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_VIDEOS,
			"localField":   "target",
			"foreignField": "_id",
			"as":           "video",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         COLLECTION_NAME_USERS,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "ownerInfo",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"username": 1, "fullName": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"ownerInfo": bson.M{"$first": "$ownerInfo"}}},
			},
		}}},
		bson.D{{Key: "$unwind", Value: "$video"}},
		bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$video"}}},
	}

	cursor, err := dbService.collectionLikes().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []contentTypes.VideoWithOwner{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}
