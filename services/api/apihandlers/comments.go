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

func (h *HttpEndpoints) AddCommentAPI(rg *gin.RouterGroup) {
	commentGroup := rg.Group("/comments")

	commentGroup.GET("/video/:videoID", h.getVideoComments)

	authed := commentGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.POST("/video/:videoID", mw.RequirePayload(), h.addComment)
		authed.PATCH("/:commentID", mw.RequirePayload(), h.updateComment)
		authed.DELETE("/:commentID", h.deleteComment)
	}
}

func (h *HttpEndpoints) getVideoComments(c *gin.Context) {
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	pq, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid pagination parameters"))
		return
	}

	page, err := h.dbConn.GetCommentsForVideo(c.Request.Context(), videoID, pq.Page, pq.Limit)
	if err != nil {
		slog.Error("failed to list comments", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list comments"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, page, "comments")
}

type CommentContentReq struct {
	Content string `json:"content"`
}

func (h *HttpEndpoints) addComment(c *gin.Context) {
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req CommentContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "content is required"))
		return
	}

	comment, err := h.dbConn.CreateComment(c.Request.Context(), contentTypes.Comment{
		Content: content,
		Video:   videoID,
		Owner:   ownerID,
	})
	if err != nil {
		slog.Error("failed to create comment", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to add comment"))
		return
	}

	apihelpers.WriteData(c, http.StatusCreated, comment, "comment added")
}

func (h *HttpEndpoints) updateComment(c *gin.Context) {
	commentID, ok := parseObjectIDParam(c, "commentID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req CommentContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "content is required"))
		return
	}

	comment, err := h.dbConn.UpdateComment(c.Request.Context(), commentID, ownerID, content)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "comment not found"))
			return
		}
		slog.Error("failed to update comment", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update comment"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, comment, "comment updated")
}

func (h *HttpEndpoints) deleteComment(c *gin.Context) {
	commentID, ok := parseObjectIDParam(c, "commentID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	if err := h.dbConn.DeleteComment(c.Request.Context(), commentID, ownerID); err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "comment not found"))
			return
		}
		slog.Error("failed to delete comment", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to delete comment"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, nil, "comment deleted")
}
