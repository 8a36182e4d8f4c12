package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"vpe/internal/config"
	apperrors "vpe/internal/errors"
	"vpe/internal/models"
	"vpe/internal/services"
)

const currentUserKey = "currentUser"

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// TokenClaims represents the claims in the session token.
type TokenClaims struct {
	UserID uint            `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"tipoUsuario"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed session token for a user. Expiry comes
// from configuration (default 24h).
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Get().JWTExpirationDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "vpe-api",
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// ParseToken verifies a session token's signature and expiry and returns
// its claims.
func ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}
	return claims, nil
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}

// RequireAuth verifies the bearer token and loads the current user fresh
// from the store, so a deleted user is rejected even while their token is
// still within its validity window.
func RequireAuth(users services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortWithAppError(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			abortWithAppError(c, apperrors.ErrInvalidToken)
			return
		}

		user, err := users.GetUserByID(claims.UserID)
		if err != nil {
			abortWithAppError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "User no longer exists"))
			return
		}

		c.Set("userID", user.ID)
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole rejects authenticated users whose role does not match.
// Must run after RequireAuth.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithAppError(c, apperrors.ErrUnauthorized)
			return
		}
		if user.Role != role {
			abortWithAppError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the current user when a valid token is present.
// It never fails the request, with or without a token.
func OptionalAuth(users services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if ok {
			if claims, err := ParseToken(tokenString); err == nil {
				if user, err := users.GetUserByID(claims.UserID); err == nil {
					c.Set("userID", user.ID)
					c.Set(currentUserKey, user)
				}
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by RequireAuth or OptionalAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}
