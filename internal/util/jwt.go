package util

import (
	"errors"
	"time"
	"vetlms_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	UserID         uint           `json:"user_id"`
	Role           model.UserRole `json:"role"`
	Email          string         `json:"email"`
	OrganizationID uint           `json:"organization_id"`
	LocationID     *uint          `json:"location_id,omitempty"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID:         user.ID,
		Role:           user.Role,
		Email:          user.Email,
		OrganizationID: user.OrganizationID,
		LocationID:     user.LocationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Actor converts the token claims into the caller identity used by services.
func (c *Claims) Actor() model.Actor {
	return model.Actor{
		UserID:         c.UserID,
		Role:           c.Role,
		OrganizationID: c.OrganizationID,
		LocationID:     c.LocationID,
	}
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
