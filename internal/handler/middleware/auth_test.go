//go:build unit

package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/handler/middleware"
	"petcare-booking/internal/pkg/config"
	"petcare-booking/internal/pkg/cookie"
	"petcare-booking/internal/pkg/jwt"
	"petcare-booking/internal/usecase"
	"petcare-booking/tests/common/authtest"
	"petcare-booking/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtConfig = config.JWTConfig{Secret: "test-secret-key-for-middleware", Duration: time.Hour}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := usecase.NewTokenValidator(jwt.NewService(jwtConfig.Secret, jwtConfig.Duration))
	auth := middleware.NewAuthMiddleware(validator, logger)

	r := gin.New()
	whoami := func(c *gin.Context) {
		requester, ok := middleware.GetRequester(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": requester.ID.String(), "role": string(requester.Role)})
	}
	r.GET("/me", auth.RequireAuth(), whoami)
	r.GET("/staff", auth.RequireAuth(), auth.RequireRole(user.RoleEmployee, user.RoleAdmin), whoami)
	return r
}

func TestRequireAuth(t *testing.T) {
	router := newAuthRouter()
	tokens := authtest.NewJWTHelper(jwtConfig)

	t.Run("success: bearer token populates the requester", func(t *testing.T) {
		token, requester := tokens.TokenFor(t, user.RoleCustomer)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, token)

		var body map[string]string
		httptest.AssertSuccessResponse(t, rec, http.StatusOK, &body)
		assert.Equal(t, requester.ID.String(), body["id"])
		assert.Equal(t, "customer", body["role"])
	})

	t.Run("success: cookie token is accepted", func(t *testing.T) {
		token, _ := tokens.TokenFor(t, user.RoleAdmin)
		cookies := []*http.Cookie{{Name: cookie.AccessTokenCookieName, Value: token}}

		rec := httptest.PerformRequestWithCookies(t, router, http.MethodGet, "/me", nil, cookies, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("error: missing token", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Access token required")
	})

	t.Run("error: expired token", func(t *testing.T) {
		token := tokens.CreateExpiredToken(t, uuid.New(), user.RoleCustomer)
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, token)
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Invalid or expired token")
	})

	t.Run("error: token signed with another secret", func(t *testing.T) {
		other := authtest.NewJWTHelper(config.JWTConfig{Secret: "someone-else", Duration: time.Hour})
		token, _ := other.TokenFor(t, user.RoleAdmin)
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	router := newAuthRouter()
	tokens := authtest.NewJWTHelper(jwtConfig)

	tests := []struct {
		role       user.Role
		expectCode int
	}{
		{role: user.RoleEmployee, expectCode: http.StatusOK},
		{role: user.RoleAdmin, expectCode: http.StatusOK},
		{role: user.RoleCustomer, expectCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			token, _ := tokens.TokenFor(t, tt.role)
			rec := httptest.PerformRequest(t, router, http.MethodGet, "/staff", nil, token)
			require.Equal(t, tt.expectCode, rec.Code, rec.Body.String())
		})
	}
}
