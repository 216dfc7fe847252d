package apihandlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	contentTypes "github.com/vidtube/vidtube-backend/pkg/content/types"
)

func (h *HttpEndpoints) AddPlaylistAPI(rg *gin.RouterGroup) {
	playlistGroup := rg.Group("/playlists")

	playlistGroup.GET("/:playlistID", h.getPlaylist)
	playlistGroup.GET("/user/:userID", h.getUserPlaylists)

	authed := playlistGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.POST("", mw.RequirePayload(), h.createPlaylist)
		authed.PATCH("/:playlistID", mw.RequirePayload(), h.updatePlaylist)
		authed.DELETE("/:playlistID", h.deletePlaylist)
		authed.POST("/:playlistID/videos/:videoID", h.addVideoToPlaylist)
		authed.DELETE("/:playlistID/videos/:videoID", h.removeVideoFromPlaylist)
	}
}

type PlaylistReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *HttpEndpoints) createPlaylist(c *gin.Context) {
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req PlaylistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "name is required"))
		return
	}

	playlist, err := h.dbConn.CreatePlaylist(c.Request.Context(), contentTypes.Playlist{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Owner:       ownerID,
	})
	if err != nil {
		slog.Error("failed to create playlist", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to create playlist"))
		return
	}

	apihelpers.WriteData(c, http.StatusCreated, playlist, "playlist created")
}

func (h *HttpEndpoints) getPlaylist(c *gin.Context) {
	playlistID, ok := parseObjectIDParam(c, "playlistID")
	if !ok {
		return
	}

	playlist, err := h.dbConn.GetPlaylistByID(c.Request.Context(), playlistID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "playlist not found"))
			return
		}
		slog.Error("failed to load playlist", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to load playlist"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, playlist, "playlist")
}

func (h *HttpEndpoints) getUserPlaylists(c *gin.Context) {
	userID, ok := parseObjectIDParam(c, "userID")
	if !ok {
		return
	}

	playlists, err := h.dbConn.GetPlaylistsForUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list playlists", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list playlists"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, playlists, "playlists")
}

func (h *HttpEndpoints) updatePlaylist(c *gin.Context) {
	playlistID, ok := parseObjectIDParam(c, "playlistID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	var req PlaylistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}

	fields := bson.M{}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		fields["description"] = description
	}
	if len(fields) == 0 {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "nothing to update"))
		return
	}

	playlist, err := h.dbConn.UpdatePlaylistDetails(c.Request.Context(), playlistID, ownerID, fields)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "playlist not found"))
			return
		}
		slog.Error("failed to update playlist", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update playlist"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, playlist, "playlist updated")
}

func (h *HttpEndpoints) deletePlaylist(c *gin.Context) {
	playlistID, ok := parseObjectIDParam(c, "playlistID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	if err := h.dbConn.DeletePlaylist(c.Request.Context(), playlistID, ownerID); err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "playlist not found"))
			return
		}
		slog.Error("failed to delete playlist", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to delete playlist"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, nil, "playlist deleted")
}

func (h *HttpEndpoints) addVideoToPlaylist(c *gin.Context) {
	playlistID, ok := parseObjectIDParam(c, "playlistID")
	if !ok {
		return
	}
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	playlist, err := h.dbConn.AddVideoToPlaylist(c.Request.Context(), playlistID, ownerID, videoID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "playlist not found"))
			return
		}
		slog.Error("failed to add video to playlist", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to add video to playlist"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, playlist, "video added to playlist")
}

func (h *HttpEndpoints) removeVideoFromPlaylist(c *gin.Context) {
	playlistID, ok := parseObjectIDParam(c, "playlistID")
	if !ok {
		return
	}
	videoID, ok := parseObjectIDParam(c, "videoID")
	if !ok {
		return
	}
	ownerID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	playlist, err := h.dbConn.RemoveVideoFromPlaylist(c.Request.Context(), playlistID, ownerID, videoID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "playlist not found"))
			return
		}
		slog.Error("failed to remove video from playlist", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to remove video from playlist"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, playlist, "video removed from playlist")
}
