package vidtubedb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	contentTypes "github.com/vidtube/vidtube-backend/pkg/content/types"
	userTypes "github.com/vidtube/vidtube-backend/pkg/user-management/types"
)

func (dbService *VidTubeDBService) CreateIndexForUsers() error {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionUsers().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "timestamps.createdAt", Value: 1}},
			},
		},
	)
	return err
}

// AddUser inserts a new account. Username/email collisions surface as
// ErrDuplicateKey from the unique indexes.
func (dbService *VidTubeDBService) AddUser(ctx context.Context, user userTypes.User) (string, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	user.ID = primitive.NilObjectID
	res, err := dbService.collectionUsers().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateKey
		}
		return "", err
	}
	id := res.InsertedID.(primitive.ObjectID)
	return id.Hex(), nil
}

func (dbService *VidTubeDBService) GetUserByID(ctx context.Context, userID string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return userTypes.User{}, err
	}

	var user userTypes.User
	err = dbService.collectionUsers().FindOne(ctx, bson.M{"_id": _id}).Decode(&user)
	return user, err
}

func (dbService *VidTubeDBService) UserExists(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}

	count, err := dbService.collectionUsers().CountDocuments(ctx, bson.M{"_id": _id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserForLogin loads the full account document, including the password
// hash and login-security fields, by username or email.
func (dbService *VidTubeDBService) GetUserForLogin(ctx context.Context, usernameOrEmail string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"username": usernameOrEmail},
		bson.M{"email": usernameOrEmail},
	}}

	var user userTypes.User
	err := dbService.collectionUsers().FindOne(ctx, filter).Decode(&user)
	return user, err
}

// RecordFailedLoginAttempt advances the attempt counter in one atomic
// update; concurrent failures on the same account never lose an increment.
// When the caller determined that this attempt reaches the lockout
// threshold it passes the lock deadline, applied in the same update.
func (dbService *VidTubeDBService) RecordFailedLoginAttempt(ctx context.Context, userID string, lockUntil *time.Time) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$inc": bson.M{"loginAttempts": 1},
	}
	if lockUntil != nil {
		update["$set"] = bson.M{"lockUntil": *lockUntil}
	}

	_, err = dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, update)
	return err
}

// RecordSuccessfulLogin resets the login-security fields and stores the
// newly issued refresh token in one atomic update, so a stale concurrent
// failure cannot re-lock the account between the reset and the token write.
func (dbService *VidTubeDBService) RecordSuccessfulLogin(ctx context.Context, userID string, refreshToken string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, bson.M{
		"$set": bson.M{
			"loginAttempts":        0,
			"lockUntil":            nil,
			"currentRefreshToken":  refreshToken,
			"timestamps.lastLogin": time.Now().Unix(),
		},
	})
	return err
}

// RotateRefreshToken replaces the stored refresh token only if the
// presented one still matches: a compare-and-swap. A miss means the token
// was already rotated or revoked and returns ErrRefreshTokenMismatch.
func (dbService *VidTubeDBService) RotateRefreshToken(ctx context.Context, userID string, presentedToken string, nextToken string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	res, err := dbService.collectionUsers().UpdateOne(ctx,
		bson.M{"_id": _id, "currentRefreshToken": presentedToken},
		bson.M{"$set": bson.M{"currentRefreshToken": nextToken}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

func (dbService *VidTubeDBService) ClearRefreshToken(ctx context.Context, userID string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, bson.M{
		"$unset": bson.M{"currentRefreshToken": 1},
	})
	return err
}

func (dbService *VidTubeDBService) UpdateUserFields(ctx context.Context, userID string, fields bson.M) (userTypes.User, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return userTypes.User{}, err
	}

	fields["timestamps.updatedAt"] = time.Now().Unix()

	var user userTypes.User
	err = dbService.collectionUsers().FindOneAndUpdate(ctx,
		bson.M{"_id": _id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userTypes.User{}, ErrDuplicateKey
		}
		return userTypes.User{}, err
	}
	return user, nil
}

func (dbService *VidTubeDBService) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, bson.M{
		"$set": bson.M{
			"password":                      passwordHash,
			"timestamps.lastPasswordChange": time.Now().Unix(),
		},
	})
	return err
}

func (dbService *VidTubeDBService) AddToWatchHistory(ctx context.Context, userID string, videoID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, bson.M{
		"$addToSet": bson.M{"watchHistory": videoID},
	})
	return err
}

func (dbService *VidTubeDBService) GetWatchHistory(ctx context.Context, userID string) ([]contentTypes.VideoWithOwner, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": _id}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_VIDEOS,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "history",
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
		bson.D{{Key: "$project", Value: bson.M{"history": 1}}},
	}

	cursor, err := dbService.collectionUsers().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		History []contentTypes.VideoWithOwner `bson:"history"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return results[0].History, nil
}

// GetChannelProfile resolves a public channel view by username, joining
// subscriber counts. When viewerID is set, isSubscribed reflects whether
// that user subscribes to the channel.
func (dbService *VidTubeDBService) GetChannelProfile(ctx context.Context, username string, viewerID *primitive.ObjectID) (userTypes.ChannelProfile, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	isSubscribed := bson.M{"$literal": false}
	if viewerID != nil {
		isSubscribed = bson.M{"$in": bson.A{*viewerID, "$subscribers.subscriber"}}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"username": username}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_SUBSCRIPTIONS,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         COLLECTION_NAME_SUBSCRIPTIONS,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"subscribersCount":  bson.M{"$size": "$subscribers"},
			"subscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed":      isSubscribed,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"username":          1,
			"fullName":          1,
			"avatar":            1,
			"coverImage":        1,
			"subscribersCount":  1,
			"subscribedToCount": 1,
			"isSubscribed":      1,
		}}},
	}

	cursor, err := dbService.collectionUsers().Aggregate(ctx, pipeline)
	if err != nil {
		return userTypes.ChannelProfile{}, err
	}
	defer cursor.Close(ctx)

	var profiles []userTypes.ChannelProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return userTypes.ChannelProfile{}, err
	}
	if len(profiles) == 0 {
		return userTypes.ChannelProfile{}, mongo.ErrNoDocuments
	}
	return profiles[0], nil
}
