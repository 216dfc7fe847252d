package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tweet struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64              `bson:"updatedAt" json:"updatedAt"`
}

type TweetWithOwner struct {
	Tweet     `bson:",inline"`
	OwnerInfo OwnerInfo `bson:"ownerInfo" json:"ownerInfo"`
}

type TweetPage struct {
	Tweets     []TweetWithOwner `json:"tweets"`
	TotalCount int64            `json:"totalCount"`
	Page       int64            `json:"page"`
	Limit      int64            `json:"limit"`
}
