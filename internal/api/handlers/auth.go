package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/tablesim/internal/config"
)

var errTokenTable = errors.New("token is not valid for this table")

// IssueTableToken signs a token that lets its holder shoot and rack on one table
func IssueTableToken(cfg *config.Config, tableID string) (string, time.Time, error) {
	ttl := cfg.TableTokenTTL()
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{"table_id": tableID, "exp": exp.Unix(), "iat": time.Now().Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// parseTableToken validates a bearer token and returns the table it was issued for
func parseTableToken(cfg *config.Config, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	tableID, ok := claims["table_id"].(string)
	if !ok || tableID == "" {
		return "", errors.New("missing table_id claim")
	}
	return tableID, nil
}

// TableAuthMiddleware requires a bearer JWT issued for the table in the :id path param
func TableAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		tableID, err := parseTableToken(cfg, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if tableID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errTokenTable.Error()})
			return
		}

		c.Set("table_id", tableID)
		c.Next()
	}
}
