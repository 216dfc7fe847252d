package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content"`
	Video     primitive.ObjectID `bson:"video" json:"video"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64              `bson:"updatedAt" json:"updatedAt"`
}

type CommentWithOwner struct {
	Comment   `bson:",inline"`
	OwnerInfo OwnerInfo `bson:"ownerInfo" json:"ownerInfo"`
}

type CommentPage struct {
	Comments   []CommentWithOwner `json:"comments"`
	TotalCount int64              `json:"totalCount"`
	Page       int64              `json:"page"`
	Limit      int64              `json:"limit"`
}
