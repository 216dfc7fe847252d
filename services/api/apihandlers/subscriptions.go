package apihandlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
)

func (h *HttpEndpoints) AddSubscriptionAPI(rg *gin.RouterGroup) {
	subGroup := rg.Group("/subscriptions")

	subGroup.GET("/channel/:channelID/subscribers", h.getChannelSubscribers)

	authed := subGroup.Group("")
	authed.Use(mw.AuthRequired(h.tokens.AccessSignKey, h.userStore))
	{
		authed.POST("/channel/:channelID/toggle", h.toggleSubscription)
		authed.GET("/me", h.getSubscribedChannels)
	}
}

func (h *HttpEndpoints) toggleSubscription(c *gin.Context) {
	channelID, ok := parseObjectIDParam(c, "channelID")
	if !ok {
		return
	}
	subscriberID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	if channelID == subscriberID {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "cannot subscribe to own channel"))
		return
	}

	exists, err := h.userStore.UserExists(c.Request.Context(), channelID.Hex())
	if err != nil {
		slog.Error("failed to check channel existence", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to toggle subscription"))
		return
	}
	if !exists {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindNotFound, "channel not found"))
		return
	}

	subscribed, err := h.dbConn.ToggleSubscription(c.Request.Context(), subscriberID, channelID)
	if err != nil {
		slog.Error("failed to toggle subscription", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to toggle subscription"))
		return
	}

	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	apihelpers.WriteData(c, http.StatusOK, gin.H{"subscribed": subscribed}, message)
}

func (h *HttpEndpoints) getChannelSubscribers(c *gin.Context) {
	channelID, ok := parseObjectIDParam(c, "channelID")
	if !ok {
		return
	}

	subscribers, err := h.dbConn.GetSubscribersOfChannel(c.Request.Context(), channelID)
	if err != nil {
		slog.Error("failed to list subscribers", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list subscribers"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, subscribers, "subscribers")
}

func (h *HttpEndpoints) getSubscribedChannels(c *gin.Context) {
	subscriberID, ok := currentUserObjectID(c)
	if !ok {
		return
	}

	channels, err := h.dbConn.GetSubscribedChannels(c.Request.Context(), subscriberID)
	if err != nil {
		slog.Error("failed to list subscribed channels", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to list subscribed channels"))
		return
	}

	apihelpers.WriteData(c, http.StatusOK, channels, "subscribed channels")
}
