package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelProfile is the public view on a user as a channel, with
// subscription counts joined in.
type ChannelProfile struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	Username          string             `bson:"username" json:"username"`
	FullName          string             `bson:"fullName" json:"fullName"`
	Avatar            string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CoverImage        string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	SubscribersCount  int64              `bson:"subscribersCount" json:"subscribersCount"`
	SubscribedToCount int64              `bson:"subscribedToCount" json:"subscribedToCount"`
	IsSubscribed      bool               `bson:"isSubscribed" json:"isSubscribed"`
}
