//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/config"
	"petcare-booking/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// JWTHelper mints tokens the way the external identity provider does.
type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, h.cfg.Duration).GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

// TokenFor mints a token for a fresh identity with role.
func (h *JWTHelper) TokenFor(t *testing.T, role user.Role) (string, user.Requester) {
	t.Helper()
	r := user.NewRequester(uuid.New(), role)
	return h.GenerateToken(t, r.ID, role), r
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	// expired well beyond the accepted clock skew
	token, err := jwt.NewService(h.cfg.Secret, -time.Hour).GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}
