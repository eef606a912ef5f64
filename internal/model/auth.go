package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims issued by the account service.
type UserClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
