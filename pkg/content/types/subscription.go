package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  int64              `bson:"createdAt" json:"createdAt"`
}

// SubscriptionWithUser joins the counterpart user's public fields: the
// subscriber when listing a channel's subscribers, the channel when listing
// a user's subscriptions.
type SubscriptionWithUser struct {
	Subscription `bson:",inline"`
	UserInfo     OwnerInfo `bson:"userInfo" json:"userInfo"`
}
