package apihandlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	contentTypes "github.com/vidtube/vidtube-backend/pkg/content/types"
)

func (h *HttpEndpoints) AddTweetAPI(rg *gin.RouterGroup) {
	tweetGroup := rg.Group("/tweets")

	tweetGroup.GET("", h.listTweets)
	tweetGroup.GET("/user/:userID", h.getUserTweets)

	authed := tweetGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.POST("", mw.RequirePayload(), h.createTweet)
		authed.PATCH("/:tweetID", mw.RequirePayload(), h.updateTweet)
		authed.DELETE("/:tweetID", h.deleteTweet)
	}
}

type TweetContentReq struct {
	Content string `json:"content"`
}

func (h *HttpEndpoints) createTweet(c *gin.Context) {
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req TweetContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "content is required"))
		return
	}

	tweet, err := h.dbConn.CreateTweet(c.Request.Context(), contentTypes.Tweet{
		Content: content,
		Owner:   ownerID,
	})
	if err != nil {
		slog.Error("failed to create tweet", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to create tweet"))
		return
	}

	apihelpers.WriteData(c, http.StatusCreated, tweet, "tweet created")
}

func (h *HttpEndpoints) listTweets(c *gin.Context) {
	pq, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, err.Error()))
		return
	}

	page, err := h.dbConn.GetTweets(c.Request.Context(), pq.Page, pq.Limit)
	if err != nil {
		slog.Error("failed to list tweets", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list tweets"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, page, "tweets")
}

func (h *HttpEndpoints) getUserTweets(c *gin.Context) {
	userID, ok := parseObjectIDParam(c, "userID")
	if !ok {
		return
	}

	tweets, err := h.dbConn.GetTweetsForUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list tweets", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list tweets"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, tweets, "tweets")
}

func (h *HttpEndpoints) updateTweet(c *gin.Context) {
	tweetID, ok := parseObjectIDParam(c, "tweetID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req TweetContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "content is required"))
		return
	}

	tweet, err := h.dbConn.UpdateTweet(c.Request.Context(), tweetID, ownerID, content)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "tweet not found"))
			return
		}
		slog.Error("failed to update tweet", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update tweet"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, tweet, "tweet updated")
}

func (h *HttpEndpoints) deleteTweet(c *gin.Context) {
	tweetID, ok := parseObjectIDParam(c, "tweetID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	if err := h.dbConn.DeleteTweet(c.Request.Context(), tweetID, ownerID); err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "tweet not found"))
			return
		}
		slog.Error("failed to delete tweet", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to delete tweet"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, nil, "tweet deleted")
}
