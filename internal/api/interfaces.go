package api

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/limbo/habitstreak/pkg/entity"
)

// JWTServiceI issues and verifies the bearer tokens checked by AuthMiddleware.
type JWTServiceI interface {
	GenerateToken(user *entity.User) (string, error)
	// Returns ErrInvalidToken for malformed, forged or expired tokens
	ParseToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims carry the account a token was issued to. UserID is the uuid of entity.User.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
