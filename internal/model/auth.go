package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims for account-bound endpoints
type UserClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RegisterRequest is the request body for account registration
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
