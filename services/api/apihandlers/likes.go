package apihandlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	contentTypes "github.com/vidtube/vidtube-backend/pkg/content/types"
)

func (h *HttpEndpoints) AddLikeAPI(rg *gin.RouterGroup) {
	likeGroup := rg.Group("/likes")

	likeGroup.GET("/:targetType/:targetID/count", h.getLikeCount)

	authed := likeGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.POST("/:targetType/:targetID/toggle", h.toggleLike)
		authed.GET("/videos", h.getLikedVideos)
	}
}

func parseLikeTarget(c *gin.Context) (contentTypes.LikeTargetType, bool) {
	targetType := contentTypes.LikeTargetType(c.Param("targetType"))
	if !targetType.IsValid() {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid target type"))
		return "", false
	}
	return targetType, true
}

func (h *HttpEndpoints) toggleLike(c *gin.Context) {
	targetType, ok := parseLikeTarget(c)
	if !ok {
		return
	}
	targetID, ok := parseObjectIDParam(c, "targetID")
	if !ok {
		return
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	liked, err := h.dbConn.ToggleLike(c.Request.Context(), userID, targetType, targetID)
	if err != nil {
		slog.Error("failed to toggle like", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to toggle like"))
		return
	}

	message := "unliked"
	if liked {
		message = "liked"
	}
	apihelpers.WriteData(c, http.StatusOK, gin.H{"liked": liked}, message)
}

func (h *HttpEndpoints) getLikeCount(c *gin.Context) {
	targetType, ok := parseLikeTarget(c)
	if !ok {
		return
	}
	targetID, ok := parseObjectIDParam(c, "targetID")
	if !ok {
		return
	}

	count, err := h.dbConn.CountLikes(c.Request.Context(), targetType, targetID)
	if err != nil {
		slog.Error("failed to count likes", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to count likes"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, gin.H{"count": count}, "like count")
}

func (h *HttpEndpoints) getLikedVideos(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	videos, err := h.dbConn.GetLikedVideos(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list liked videos", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list liked videos"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, videos, "liked videos")
}
