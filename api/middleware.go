package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const (
	bearerSchema  = "Bearer "
	adminIDKey    = "adminID"
	tokenIssuer   = "luckydraw"
	signingMethod = "HS256"
)

// AdminClaims are the claims of an admin API token
type AdminClaims struct {
	AdminID int64 `json:"admin_id"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs an HS256 token for adminID valid for ttl
func IssueAdminToken(secret string, adminID int64, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("ADMIN_JWT_SECRET is not configured")
	}
	claims := AdminClaims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", adminID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTAuth verifies the bearer token and stores the admin id in the context.
// Whether that id is still an admin is checked by each operation.
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		if len(key) == 0 {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API is not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a Bearer token"})
			return
		}

		claims := &AdminClaims{}
		_, err := jwt.ParseWithClaims(authHeader[len(bearerSchema):], claims, func(token *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{signingMethod}), jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
		if err != nil {
			log.WithError(err).Debug("Rejected admin API token")
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			return
		}
		if claims.AdminID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		c.Set(adminIDKey, claims.AdminID)
		c.Next()
	}
}

// RequestLogger logs one line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if id, ok := c.Get(adminIDKey); ok {
			entry = entry.WithField("adminID", id)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("HTTP request failed")
		} else {
			entry.Debug("HTTP request")
		}
	}
}

func adminIDFrom(c *gin.Context) int64 {
	return c.GetInt64(adminIDKey)
}
