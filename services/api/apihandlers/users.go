package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	vidtubedb "github.com/vidtube/vidtube-backend/pkg/db/vidtube"
	"github.com/vidtube/vidtube-backend/pkg/filestore"
	"github.com/vidtube/vidtube-backend/pkg/user-management/pwhash"
	umUtils "github.com/vidtube/vidtube-backend/pkg/user-management/utils"
)

func (h *HttpEndpoints) AddUserAPI(rg *gin.RouterGroup) {
	userGroup := rg.Group("/users")

	userGroup.GET("/channel/:username", h.getChannelProfile)

	authed := userGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.GET("/me", h.getCurrentUser)
		authed.PATCH("/me", mw.RequirePayload(), h.updateAccountDetails)
		authed.POST("/change-password", mw.RequirePayload(), h.changePassword)
		authed.PATCH("/me/avatar", h.updateAvatar)
		authed.PATCH("/me/cover-image", h.updateCoverImage)
		authed.GET("/me/watch-history", h.getWatchHistory)
	}
}

func (h *HttpEndpoints) getCurrentUser(c *gin.Context) {
	userID := c.GetString(mw.ContextKeyUserID)

	user, err := h.userStore.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to load current user", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to load account"))
		return
	}
	apihelpers.WriteData(c, http.StatusOK, user.Public(), "current user")
}

type UpdateAccountDetailsReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *HttpEndpoints) updateAccountDetails(c *gin.Context) {
	userID := c.GetString(mw.ContextKeyUserID)

	var req UpdateAccountDetailsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}

	fields := bson.M{}
	if fullName := strings.TrimSpace(req.FullName); fullName != "" {
		fields["fullName"] = fullName
	}
	if req.Email != "" {
		email := umUtils.SanitizeEmail(req.Email)
		if !umUtils.CheckEmailFormat(email) {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "email address is not valid"))
			return
		}
		fields["email"] = email
	}
	if len(fields) == 0 {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "nothing to update"))
		return
	}

	user, err := h.userStore.UpdateUserFields(c.Request.Context(), userID, fields)
	if err != nil {
		if errors.Is(err, vidtubedb.ErrDuplicateKey) {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindConflict, "email already in use"))
			return
		}
		slog.Error("failed to update account details", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update account"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, user.Public(), "account details updated")
}

type ChangePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *HttpEndpoints) changePassword(c *gin.Context) {
	userID := c.GetString(mw.ContextKeyUserID)

	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}

	if !umUtils.CheckPasswordFormat(req.NewPassword) {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "password must be at least 8 characters and mix at least three character classes"))
		return
	}
	if req.NewPassword == req.OldPassword {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "new password must differ from the current one"))
		return
	}

	user, err := h.userStore.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to load user for password change", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to change password"))
		return
	}

	match, err := pwhash.ComparePasswordWithHash(user.Password, req.OldPassword)
	if err != nil || !match {
		slog.Warn("password change with wrong current password", slog.String("subject", userID))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "current password is incorrect"))
		return
	}

	hashedPassword, err := pwhash.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to change password"))
		return
	}

	if err := h.userStore.UpdatePassword(c.Request.Context(), userID, hashedPassword); err != nil {
		slog.Error("failed to update password", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to change password"))
		return
	}

	slog.Info("password changed", slog.String("subject", userID))
	apihelpers.WriteData(c, http.StatusOK, nil, "password changed")
}

func (h *HttpEndpoints) updateAvatar(c *gin.Context) {
	h.updateUserImage(c, "avatar", filestore.FileKindAvatar)
}

func (h *HttpEndpoints) updateCoverImage(c *gin.Context) {
	h.updateUserImage(c, "coverImage", filestore.FileKindCoverImage)
}

func (h *HttpEndpoints) updateUserImage(c *gin.Context, field string, kind filestore.FileKind) {
	userID := c.GetString(mw.ContextKeyUserID)

	fileHeader, err := c.FormFile(field)
	if err != nil {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, field+" file is required"))
		return
	}

	current, err := h.userStore.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to load user for image update", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update "+field))
		return
	}

	url, err := h.fileStore.Store(c.Request.Context(), fileHeader, kind)
	if err != nil {
		slog.Warn("failed to store uploaded image", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "uploaded file is not a supported image"))
		return
	}

	user, err := h.userStore.UpdateUserFields(c.Request.Context(), userID, bson.M{field: url})
	if err != nil {
		slog.Error("failed to update user image", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to update "+field))
		return
	}

	oldURL := current.Avatar
	if field == "coverImage" {
		oldURL = current.CoverImage
	}
	if oldURL != "" {
		if err := h.fileStore.Remove(c.Request.Context(), oldURL); err != nil {
			slog.Error("failed to remove replaced image", slog.String("error", err.Error()))
		}
	}

	apihelpers.WriteData(c, http.StatusOK, user.Public(), field+" updated")
}

func (h *HttpEndpoints) getChannelProfile(c *gin.Context) {
	username := umUtils.SanitizeUsername(c.Param("username"))
	if username == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "username is required"))
		return
	}

	viewerID := h.optionalViewerID(c)

	profile, err := h.dbConn.GetChannelProfile(c.Request.Context(), username, viewerID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "channel not found"))
			return
		}
		slog.Error("failed to load channel profile", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to load channel"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, profile, "channel profile")
}

func (h *HttpEndpoints) getWatchHistory(c *gin.Context) {
	userID := c.GetString(mw.ContextKeyUserID)

	videos, err := h.dbConn.GetWatchHistory(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to load watch history", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to load watch history"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, videos, "watch history")
}

// optionalViewerID resolves the requesting account for endpoints that are
// public but personalize their response when a valid session is present.
// An invalid or missing token is not an error here.
func (h *HttpEndpoints) optionalViewerID(c *gin.Context) *primitive.ObjectID {
	userID, ok := mw.OptionalUserID(c, h.tokens.AccessSignKey)
	if !ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	return &id
}
