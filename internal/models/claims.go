package models

import "github.com/golang-jwt/jwt/v5"

// Claims представляет стандартные поля JWT и пользовательские данные,
// которые мы ожидаем увидеть в access-токене.
type Claims struct {
	UserID               string `json:"user_id"`
	jwt.RegisteredClaims        // Issuer, Subject, ExpiresAt, IssuedAt и т.д.
}
