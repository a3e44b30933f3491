package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tuc-canteen-backend/models"
)

var secretKey []byte

func LoadSecret() {
	secretKey = []byte(os.Getenv("JWT_SECRET"))
}

func GetSecret() []byte {
	return secretKey
}

// AuthMiddleware validates the session token from the Authorization header or
// the auth cookie and stashes the operator identity on the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		var err error

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			tokenString, err = c.Cookie("token")
		}

		if tokenString == "" || err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized: missing token"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return GetSecret(), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid claims"})
			c.Abort()
			return
		}

		adminIDStr, _ := claims["adminId"].(string)
		if adminIDStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid adminId"})
			c.Abort()
			return
		}

		if _, err := primitive.ObjectIDFromHex(adminIDStr); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid adminId format"})
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)

		c.Set("adminId", adminIDStr)
		c.Set("role", role)
		c.Next()
	}
}

// RequireLeader gates seller management behind the leader role. Assistants can
// record attendance and collect payments but not change the seller roster.
func RequireLeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != string(models.RoleLeader) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Leader role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func SetAuthCookie(c *gin.Context, tokenString string, duration time.Duration) {
	appEnv := os.Getenv("APP_ENV")

	maxAge := int(duration.Seconds())

	// Leave domain empty so the cookie works behind the PWA's reverse proxy.
	domain := ""

	secure := false
	httpOnly := true

	var sameSite http.SameSite

	if appEnv == "production" {
		secure = true
		sameSite = http.SameSiteNoneMode
	} else {
		sameSite = http.SameSiteLaxMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie("token", tokenString, maxAge, "/", domain, secure, httpOnly)
}
