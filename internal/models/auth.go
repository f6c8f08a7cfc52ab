package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials for authenticating an office account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Type       Department `json:"type"`
	Department string     `json:"department"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Message   string   `json:"message"`
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	User      UserInfo `json:"user"`
}

// JWTClaims is the JWT payload for access tokens.
type JWTClaims struct {
	UserID     int64      `json:"user_id"`
	Email      string     `json:"email"`
	Department Department `json:"department"`
	jwt.RegisteredClaims
}
