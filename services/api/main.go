package main

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	"github.com/vidtube/vidtube-backend/pkg/db"
	vidtubedb "github.com/vidtube/vidtube-backend/pkg/db/vidtube"
	"github.com/vidtube/vidtube-backend/pkg/filestore"
	"github.com/vidtube/vidtube-backend/services/api/apihandlers"
)

var conf ApiConfig

func main() {
	dbService, err := vidtubedb.NewVidTubeDBService(db.DBConfigFromYamlObj(conf.DBConfigs.VidTubeDB))
	if err != nil {
		slog.Error("Error connecting to VidTube DB", slog.String("error", err.Error()))
		return
	}

	fileStore, err := filestore.NewLocalFileStore(conf.FilestoreConfig.Path, conf.FilestoreConfig.BaseURL)
	if err != nil {
		slog.Error("Error initializing file store", slog.String("error", err.Error()))
		return
	}

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PATCH", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Static(conf.FilestoreConfig.BaseURL, conf.FilestoreConfig.Path)

	// Add handlers
	v1APIHandlers := apihandlers.NewHTTPHandler(
		dbService,
		dbService,
		fileStore,
		apihandlers.TokenConfig{
			AccessSignKey:    conf.UserManagementConfig.SessionTokenConfig.AccessSignKey,
			RefreshSignKey:   conf.UserManagementConfig.SessionTokenConfig.RefreshSignKey,
			AccessExpiresIn:  conf.UserManagementConfig.SessionTokenConfig.AccessExpiresIn,
			RefreshExpiresIn: conf.UserManagementConfig.SessionTokenConfig.RefreshExpiresIn,
		},
		cookieConfigFromConfig(),
	)

	router.GET("/", v1APIHandlers.HealthCheckHandle)
	v1Root := router.Group("/v1")

	loginLimiter := loginLimiterFromConfig()
	v1APIHandlers.AddAuthAPI(v1Root, loginLimiter.Middleware())
	v1APIHandlers.AddUserAPI(v1Root)
	v1APIHandlers.AddVideoAPI(v1Root)
	v1APIHandlers.AddCommentAPI(v1Root)
	v1APIHandlers.AddTweetAPI(v1Root)
	v1APIHandlers.AddPlaylistAPI(v1Root)
	v1APIHandlers.AddSubscriptionAPI(v1Root)
	v1APIHandlers.AddLikeAPI(v1Root)

	if conf.GinConfig.DebugMode {
		if err := apihelpers.WriteRoutesToFile(router, "api-routes.txt"); err != nil {
			slog.Error("failed to write route list", slog.String("error", err.Error()))
		}
	}

	// Start the server
	slog.Info("Starting VidTube API on port " + conf.GinConfig.Port)
	if err := router.Run(":" + conf.GinConfig.Port); err != nil {
		slog.Error("Exited VidTube API", slog.String("error", err.Error()))
		return
	}
}
