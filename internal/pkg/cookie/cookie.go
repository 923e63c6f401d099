package cookie

import "github.com/gin-gonic/gin"

// AccessTokenCookieName is read as an alternative to the Authorization header.
const AccessTokenCookieName = "access_token"

func GetAccessToken(c *gin.Context) string {
	token, _ := c.Cookie(AccessTokenCookieName)
	return token
}
