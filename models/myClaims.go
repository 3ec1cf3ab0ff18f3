package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// MyClaims はゲストトークンのJWTクレームの構造体定義です。
type MyClaims struct {
	UserID string `json:"userid"`
	Name   string `json:"name"`
	jwt.StandardClaims
}
