package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates one, and
// makes it available to the service loggers through the request context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), services.RequestIDKey, id))
		c.Next()
	}
}

// AccessClaims are the claims the backend puts in its access tokens
type AccessClaims struct {
	jwt.RegisteredClaims
	Role           string `json:"role,omitempty"`
	OrganizationID *int   `json:"organization_id,omitempty"`
	Type           string `json:"type,omitempty"`
}

// TokenVerifier checks access tokens against the key shared with the backend
type TokenVerifier struct {
	key    []byte
	parser *jwt.Parser
}

func NewTokenVerifier(secret, algorithm string) *TokenVerifier {
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	return &TokenVerifier{
		key:    []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{algorithm})),
	}
}

// Verify returns the claims of a correctly signed, unexpired access token
func (v *TokenVerifier) Verify(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}); err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	// Refresh tokens are signed with the same key unless configured otherwise
	if claims.Type != "" && claims.Type != "access" {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and identifies the learner by
// its "sub" claim. The token is forwarded to the backend as is.
func AuthMiddleware(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Code:    "unauthenticated",
			})
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
				Details: err.Error(),
				Code:    "unauthenticated",
			})
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// bearerToken reads the Authorization header, or the "token" query parameter
// for websocket upgrades where browsers cannot set headers
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}
