package apihandlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	vidtubedb "github.com/vidtube/vidtube-backend/pkg/db/vidtube"
	"github.com/vidtube/vidtube-backend/pkg/filestore"
	userTypes "github.com/vidtube/vidtube-backend/pkg/user-management/types"
)

// UserStore is the account storage contract the HTTP layer depends on.
// *vidtubedb.VidTubeDBService satisfies it; tests substitute an in-memory
// implementation.
type UserStore interface {
	AddUser(ctx context.Context, user userTypes.User) (string, error)
	GetUserByID(ctx context.Context, userID string) (userTypes.User, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	GetUserForLogin(ctx context.Context, usernameOrEmail string) (userTypes.User, error)
	RecordFailedLoginAttempt(ctx context.Context, userID string, lockUntil *time.Time) error
	RecordSuccessfulLogin(ctx context.Context, userID string, refreshToken string) error
	RotateRefreshToken(ctx context.Context, userID string, presentedToken string, nextToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdateUserFields(ctx context.Context, userID string, fields bson.M) (userTypes.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}

// TokenConfig holds the signing keys and lifetimes for session tokens.
// Access and refresh tokens are signed with separate keys.
type TokenConfig struct {
	AccessSignKey    string
	RefreshSignKey   string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type HttpEndpoints struct {
	userStore UserStore
	dbConn    *vidtubedb.VidTubeDBService
	fileStore filestore.FileStore
	tokens    TokenConfig
	cookies   apihelpers.CookieConfig

	// injectable clock for lockout tests
	now func() time.Time
}

func NewHTTPHandler(
	userStore UserStore,
	dbConn *vidtubedb.VidTubeDBService,
	fileStore filestore.FileStore,
	tokens TokenConfig,
	cookies apihelpers.CookieConfig,
) *HttpEndpoints {
	return &HttpEndpoints{
		userStore: userStore,
		dbConn:    dbConn,
		fileStore: fileStore,
		tokens:    tokens,
		cookies:   cookies,
		now:       time.Now,
	}
}

func (h *HttpEndpoints) HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
