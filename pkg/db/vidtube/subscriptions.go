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

func (dbService *VidTubeDBService) CreateIndexForSubscriptions() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionSubscriptions().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "channel", Value: 1}},
			},
		},
	)
	return err
}

// ToggleSubscription subscribes when no subscription exists and
// unsubscribes otherwise. Returns true when the user is subscribed after
// the call. The unique (subscriber, channel) index keeps a concurrent
// double-subscribe from creating two documents.
func (dbService *VidTubeDBService) ToggleSubscription(ctx context.Context, subscriberID primitive.ObjectID, channelID primitive.ObjectID) (bool, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"subscriber": subscriberID, "channel": channelID}

	res, err := dbService.collectionSubscriptions().DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = dbService.collectionSubscriptions().InsertOne(ctx, contentTypes.Subscription{
		Subscriber: subscriberID,
		Channel:    channelID,
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

func (dbService *VidTubeDBService) GetSubscribersOfChannel(ctx context.Context, channelID primitive.ObjectID) ([]contentTypes.SubscriptionWithUser, error) {
	return dbService.findSubscriptionsWithUser(ctx,
		bson.M{"channel": channelID}, "subscriber")
}

func (dbService *VidTubeDBService) GetSubscribedChannels(ctx context.Context, subscriberID primitive.ObjectID) ([]contentTypes.SubscriptionWithUser, error) {
	return dbService.findSubscriptionsWithUser(ctx,
		bson.M{"subscriber": subscriberID}, "channel")
}

func (dbService *VidTubeDBService) findSubscriptionsWithUser(ctx context.Context, filter bson.M, joinField string) ([]contentTypes.SubscriptionWithUser, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_USERS,
			"localField":   joinField,
			"foreignField": "_id",
			"as":           "userInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"username": 1, "fullName": 1, "avatar": 1}},
			},
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{"userInfo": bson.M{"$first": "$userInfo"}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cursor, err := dbService.collectionSubscriptions().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []contentTypes.SubscriptionWithUser{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
