package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeTargetType enumerates the content kinds a like can attach to.
type LikeTargetType string

const (
	LikeTargetVideo   LikeTargetType = "video"
	LikeTargetComment LikeTargetType = "comment"
	LikeTargetTweet   LikeTargetType = "tweet"
)

func (t LikeTargetType) IsValid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return true
	}
	return false
}

type Like struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TargetType LikeTargetType     `bson:"targetType" json:"targetType"`
	Target     primitive.ObjectID `bson:"target" json:"target"`
	LikedBy    primitive.ObjectID `bson:"likedBy" json:"likedBy"`
	CreatedAt  int64              `bson:"createdAt" json:"createdAt"`
}
