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

func (dbService *VidTubeDBService) CreateIndexForComments() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionComments().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}},
			},
		},
	)
	return err
}

func (dbService *VidTubeDBService) CreateComment(ctx context.Context, comment contentTypes.Comment) (contentTypes.Comment, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	now := time.Now().Unix()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	_, err := dbService.collectionComments().InsertOne(ctx, comment)
	return comment, err
}

func (dbService *VidTubeDBService) GetCommentsForVideo(ctx context.Context, videoID primitive.ObjectID, page int64, limit int64) (contentTypes.CommentPage, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"video": videoID}

	total, err := dbService.collectionComments().CountDocuments(ctx, filter)
	if err != nil {
		return contentTypes.CommentPage{}, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, lookupOwnerStage()...)

	cursor, err := dbService.collectionComments().Aggregate(ctx, pipeline)
	if err != nil {
		return contentTypes.CommentPage{}, err
	}
	defer cursor.Close(ctx)

	comments := []contentTypes.CommentWithOwner{}
	if err := cursor.All(ctx, &comments); err != nil {
		return contentTypes.CommentPage{}, err
	}

	return contentTypes.CommentPage{
		Comments:   comments,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (dbService *VidTubeDBService) UpdateComment(ctx context.Context, commentID primitive.ObjectID, ownerID primitive.ObjectID, content string) (contentTypes.Comment, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var comment contentTypes.Comment
	err := dbService.collectionComments().FindOneAndUpdate(ctx,
		bson.M{"_id": commentID, "owner": ownerID},
		bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().Unix()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&comment)
	return comment, err
}

func (dbService *VidTubeDBService) DeleteComment(ctx context.Context, commentID primitive.ObjectID, ownerID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionComments().DeleteOne(ctx, bson.M{"_id": commentID, "owner": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
