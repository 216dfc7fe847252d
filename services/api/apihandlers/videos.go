package apihandlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	contentTypes "github.com/vidtube/vidtube-backend/pkg/content/types"
	"github.com/vidtube/vidtube-backend/pkg/filestore"
)

func (h *HttpEndpoints) AddVideoAPI(rg *gin.RouterGroup) {
	videoGroup := rg.Group("/videos")

	videoGroup.GET("", h.listVideos)
	videoGroup.GET("/:videoID", h.getVideo)

	authed := videoGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.POST("", h.publishVideo)
		authed.PATCH("/:videoID", mw.RequirePayload(), h.updateVideo)
		authed.DELETE("/:videoID", h.deleteVideo)
		authed.PATCH("/:videoID/toggle-publish", h.togglePublishStatus)
	}
}

func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid "+name))
		return primitive.NilObjectID, false
	}
	return id, true
}

func currentUserObjectID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(mw.ContextKeyUserID))
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "authentication required"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *HttpEndpoints) listVideos(c *gin.Context) {
	pq, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid pagination parameters"))
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	sortBy := c.DefaultQuery("sortBy", "createdAt")
	switch sortBy {
	case "createdAt", "views", "duration", "title":
	default:
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid sortBy"))
		return
	}
	sortAsc := c.Query("sortOrder") == "asc"

	var ownerID *primitive.ObjectID
	if owner := c.Query("userId"); owner != "" {
		id, err := primitive.ObjectIDFromHex(owner)
		if err != nil {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid userId"))
			return
		}
		ownerID = &id
	}

	page, err := h.dbConn.FindVideos(c.Request.Context(), query, ownerID, sortBy, sortAsc, pq.Page, pq.Limit)
	if err != nil {
		slog.Error("failed to list videos", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list videos"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, page, "videos")
}

func (h *HttpEndpoints) getVideo(c *gin.Context) {
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}

	video, err := h.dbConn.GetVideoByID(c.Request.Context(), videoID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "video not found"))
			return
		}
		slog.Error("failed to load video", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to load video"))
		return
	}

	viewerID := h.optionalViewerID(c)

	// Unpublished videos are only visible to their owner.
	if !video.IsPublished && (viewerID == nil || *viewerID != video.Owner) {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "video not found"))
		return
	}

	if err := h.dbConn.IncrementVideoViews(c.Request.Context(), videoID); err != nil {
		slog.Error("failed to increment views", slog.String("error", err.Error()))
	}

	// Record into the viewer's watch history when a session is present.
	if viewerID != nil {
		if err := h.dbConn.AddToWatchHistory(c.Request.Context(), viewerID.Hex(), videoID); err != nil {
			slog.Error("failed to record watch history", slog.String("error", err.Error()))
		}
	}

	apihelpers.WriteData(c, http.StatusOK, video, "video")
}

func (h *HttpEndpoints) publishVideo(c *gin.Context) {
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "title is required"))
		return
	}
	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)

	videoFileHeader, err := c.FormFile("videoFile")
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "videoFile is required"))
		return
	}
	thumbnailHeader, err := c.FormFile("thumbnail")
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "thumbnail is required"))
		return
	}

	videoURL, err := h.fileStore.Store(c.Request.Context(), videoFileHeader, filestore.FileKindVideo)
	if err != nil {
		slog.Warn("failed to store video file", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "uploaded file is not a supported video"))
		return
	}
	thumbnailURL, err := h.fileStore.Store(c.Request.Context(), thumbnailHeader, filestore.FileKindThumbnail)
	if err != nil {
		slog.Warn("failed to store thumbnail", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "uploaded thumbnail is not a supported image"))
		return
	}

	video, err := h.dbConn.CreateVideo(c.Request.Context(), contentTypes.Video{
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbnailURL,
		Duration:    duration,
		IsPublished: true,
		Owner:       ownerID,
	})
	if err != nil {
		slog.Error("failed to create video", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to publish video"))
		return
	}

	slog.Info("video published", slog.String("videoID", video.ID.Hex()), slog.String("subject", ownerID.Hex()))
	apihelpers.WriteData(c, http.StatusCreated, video, "video published")
}

type UpdateVideoReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *HttpEndpoints) updateVideo(c *gin.Context) {
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	fields := bson.M{}
	oldThumbnail := ""
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if title := strings.TrimSpace(c.PostForm("title")); title != "" {
			fields["title"] = title
		}
		if description := strings.TrimSpace(c.PostForm("description")); description != "" {
			fields["description"] = description
		}
		if thumbnailHeader, err := c.FormFile("thumbnail"); err == nil {
			current, err := h.dbConn.GetVideoByID(c.Request.Context(), videoID)
			if err == nil {
				oldThumbnail = current.Thumbnail
			}
			thumbnailURL, err := h.fileStore.Store(c.Request.Context(), thumbnailHeader, filestore.FileKindThumbnail)
			if err != nil {
				slog.Warn("failed to store thumbnail", slog.String("error", err.Error()))
				apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "uploaded thumbnail is not a supported image"))
				return
			}
			fields["thumbnail"] = thumbnailURL
		}
	} else {
		var req UpdateVideoReq
		if err := c.ShouldBindJSON(&req); err != nil {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
			return
		}
		if title := strings.TrimSpace(req.Title); title != "" {
			fields["title"] = title
		}
		if description := strings.TrimSpace(req.Description); description != "" {
			fields["description"] = description
		}
	}
	if len(fields) == 0 {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "nothing to update"))
		return
	}

	video, err := h.dbConn.UpdateVideoDetails(c.Request.Context(), videoID, ownerID, fields)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "video not found"))
			return
		}
		slog.Error("failed to update video", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update video"))
		return
	}

	if _, ok := fields["thumbnail"]; ok && oldThumbnail != "" {
		if err := h.fileStore.Remove(c.Request.Context(), oldThumbnail); err != nil {
			slog.Warn("failed to remove replaced thumbnail", slog.String("error", err.Error()))
		}
	}

	apihelpers.WriteData(c, http.StatusOK, video, "video updated")
}

func (h *HttpEndpoints) deleteVideo(c *gin.Context) {
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	video, err := h.dbConn.GetVideoByID(c.Request.Context(), videoID)
	if err != nil && err != mongo.ErrNoDocuments {
		slog.Error("failed to load video for deletion", slog.String("error", err.Error()))
	}

	if err := h.dbConn.DeleteVideo(c.Request.Context(), videoID, ownerID); err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "video not found"))
			return
		}
		slog.Error("failed to delete video", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to delete video"))
		return
	}

	for _, url := range []string{video.VideoFile, video.Thumbnail} {
		if url == "" {
			continue
		}
		if err := h.fileStore.Remove(c.Request.Context(), url); err != nil {
			slog.Error("failed to remove stored file", slog.String("error", err.Error()))
		}
	}

	slog.Info("video deleted", slog.String("videoID", videoID.Hex()), slog.String("subject", ownerID.Hex()))
	apihelpers.WriteData(c, http.StatusOK, nil, "video deleted")
}

func (h *HttpEndpoints) togglePublishStatus(c *gin.Context) {
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	video, err := h.dbConn.TogglePublishStatus(c.Request.Context(), videoID, ownerID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "video not found"))
			return
		}
		slog.Error("failed to toggle publish status", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to toggle publish status"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, video, "publish status toggled")
}
