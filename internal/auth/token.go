package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minniexp/expense-backend/internal/models"
)

// SessionTTL matches the long-lived sessions the frontend expects.
const SessionTTL = 180 * 24 * time.Hour

type Claims struct {
	UserID      string             `json:"user_id"`
	Email       string             `json:"email"`
	AccessLevel models.AccessLevel `json:"access_level"`
	IsApproved  bool               `json:"is_approved"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = SessionTTL
	}
	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Email:       user.Email,
		AccessLevel: user.AccessLevel,
		IsApproved:  user.IsApproved,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
