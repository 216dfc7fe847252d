package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	"github.com/vidtube/vidtube-backend/pkg/db"
	"github.com/vidtube/vidtube-backend/pkg/user-management/pwhash"
	"github.com/vidtube/vidtube-backend/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_VIDTUBE_DB_USERNAME = "VIDTUBE_DB_USERNAME"
	ENV_VIDTUBE_DB_PASSWORD = "VIDTUBE_DB_PASSWORD"

	ENV_ACCESS_TOKEN_SIGN_KEY  = "ACCESS_TOKEN_SIGN_KEY"
	ENV_REFRESH_TOKEN_SIGN_KEY = "REFRESH_TOKEN_SIGN_KEY"
)

type ApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`
	} `json:"gin_config" yaml:"gin_config"`

	// user management configs
	UserManagementConfig struct {
		PWHashing struct {
			Argon2Memory      uint32 `json:"argon2_memory" yaml:"argon2_memory"`
			Argon2Iterations  uint32 `json:"argon2_iterations" yaml:"argon2_iterations"`
			Argon2Parallelism uint8  `json:"argon2_parallelism" yaml:"argon2_parallelism"`
		} `json:"pw_hashing" yaml:"pw_hashing"`
		SessionTokenConfig struct {
			AccessSignKey    string        `json:"access_sign_key" yaml:"access_sign_key"`
			RefreshSignKey   string        `json:"refresh_sign_key" yaml:"refresh_sign_key"`
			AccessExpiresIn  time.Duration `json:"access_expires_in" yaml:"access_expires_in"`
			RefreshExpiresIn time.Duration `json:"refresh_expires_in" yaml:"refresh_expires_in"`
		} `json:"session_token_config" yaml:"session_token_config"`
		LoginRateLimit struct {
			Window      time.Duration `json:"window" yaml:"window"`
			MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
		} `json:"login_rate_limit" yaml:"login_rate_limit"`
	} `json:"user_management_config" yaml:"user_management_config"`

	// Cookie configs
	CookieConfig struct {
		Domain string `json:"domain" yaml:"domain"`
		Secure bool   `json:"secure" yaml:"secure"`
	} `json:"cookie_config" yaml:"cookie_config"`

	// DB configs
	DBConfigs struct {
		VidTubeDB db.DBConfigYaml `json:"vidtube_db" yaml:"vidtube_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Filestore configs
	FilestoreConfig struct {
		Path    string `json:"path" yaml:"path"`
		BaseURL string `json:"base_url" yaml:"base_url"`
	} `json:"filestore_config" yaml:"filestore_config"`
}

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
	)

	// Override secrets from environment variables
	secretsOverride()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// init argon2
	pwhash.InitArgonParams(
		conf.UserManagementConfig.PWHashing.Argon2Memory,
		conf.UserManagementConfig.PWHashing.Argon2Iterations,
		conf.UserManagementConfig.PWHashing.Argon2Parallelism,
	)

	checkSessionTokenConfig()
}

func secretsOverride() {
	if username := os.Getenv(ENV_VIDTUBE_DB_USERNAME); username != "" {
		conf.DBConfigs.VidTubeDB.Username = username
	}
	if password := os.Getenv(ENV_VIDTUBE_DB_PASSWORD); password != "" {
		conf.DBConfigs.VidTubeDB.Password = password
	}
	if signKey := os.Getenv(ENV_ACCESS_TOKEN_SIGN_KEY); signKey != "" {
		conf.UserManagementConfig.SessionTokenConfig.AccessSignKey = signKey
	}
	if signKey := os.Getenv(ENV_REFRESH_TOKEN_SIGN_KEY); signKey != "" {
		conf.UserManagementConfig.SessionTokenConfig.RefreshSignKey = signKey
	}
}

func checkSessionTokenConfig() {
	tc := conf.UserManagementConfig.SessionTokenConfig
	if tc.AccessSignKey == "" || tc.RefreshSignKey == "" {
		panic("session token sign keys must be configured")
	}
	if tc.AccessSignKey == tc.RefreshSignKey {
		panic("access and refresh token sign keys must differ")
	}
	if tc.AccessExpiresIn <= 0 {
		conf.UserManagementConfig.SessionTokenConfig.AccessExpiresIn = 15 * time.Minute
	}
	if tc.RefreshExpiresIn <= 0 {
		conf.UserManagementConfig.SessionTokenConfig.RefreshExpiresIn = 7 * 24 * time.Hour
	}
}

func loginLimiterFromConfig() *mw.LoginLimiter {
	return mw.NewLoginLimiter(mw.LoginLimiterConfig{
		Window:      conf.UserManagementConfig.LoginRateLimit.Window,
		MaxAttempts: conf.UserManagementConfig.LoginRateLimit.MaxAttempts,
	})
}

func cookieConfigFromConfig() apihelpers.CookieConfig {
	return apihelpers.CookieConfig{
		Domain: conf.CookieConfig.Domain,
		Secure: conf.CookieConfig.Secure,
	}
}
