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

func (dbService *VidTubeDBService) CreateIndexForTweets() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionTweets().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
			},
		},
	)
	return err
}

func (dbService *VidTubeDBService) CreateTweet(ctx context.Context, tweet contentTypes.Tweet) (contentTypes.Tweet, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	now := time.Now().Unix()
	tweet.ID = primitive.NewObjectID()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now

	_, err := dbService.collectionTweets().InsertOne(ctx, tweet)
	return tweet, err
}

func (dbService *VidTubeDBService) GetTweets(ctx context.Context, page int64, limit int64) (contentTypes.TweetPage, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	total, err := dbService.collectionTweets().CountDocuments(ctx, bson.M{})
	if err != nil {
		return contentTypes.TweetPage{}, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, lookupOwnerStage()...)

	cursor, err := dbService.collectionTweets().Aggregate(ctx, pipeline)
	if err != nil {
		return contentTypes.TweetPage{}, err
	}
	defer cursor.Close(ctx)

	tweets := []contentTypes.TweetWithOwner{}
	if err := cursor.All(ctx, &tweets); err != nil {
		return contentTypes.TweetPage{}, err
	}

	return contentTypes.TweetPage{
		Tweets:     tweets,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (dbService *VidTubeDBService) GetTweetsForUser(ctx context.Context, ownerID primitive.ObjectID) ([]contentTypes.TweetWithOwner, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"owner": ownerID}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOwnerStage()...)

	cursor, err := dbService.collectionTweets().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tweets := []contentTypes.TweetWithOwner{}
	if err := cursor.All(ctx, &tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

func (dbService *VidTubeDBService) UpdateTweet(ctx context.Context, tweetID primitive.ObjectID, ownerID primitive.ObjectID, content string) (contentTypes.Tweet, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var tweet contentTypes.Tweet
	err := dbService.collectionTweets().FindOneAndUpdate(ctx,
		bson.M{"_id": tweetID, "owner": ownerID},
		bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().Unix()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tweet)
	return tweet, err
}

func (dbService *VidTubeDBService) DeleteTweet(ctx context.Context, tweetID primitive.ObjectID, ownerID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	res, err := dbService.collectionTweets().DeleteOne(ctx, bson.M{"_id": tweetID, "owner": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
