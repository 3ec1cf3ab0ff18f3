package middlewares

import (
	"errors"
	"fmt"
	"time"

	"kingcatserver/models"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// ゲストトークンの有効期限
const guestTokenTTL = 72 * time.Hour

// TokenIssuer signs and verifies guest tokens with one HMAC secret.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: guestTokenTTL, now: time.Now}
}

// GenerateGuest は新しいユーザーIDを振ってトークンを発行する
func (ti *TokenIssuer) GenerateGuest(name string) (string, models.User, error) {
	user := models.User{ID: uuid.New().String(), Name: name}
	token, err := ti.GenerateToken(user)
	return token, user, err
}

func (ti *TokenIssuer) GenerateToken(user models.User) (string, error) {
	claims := &models.MyClaims{
		UserID: user.ID,
		Name:   user.Name,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  ti.now().Unix(),
			ExpiresAt: ti.now().Add(ti.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.key)
}

// ParseToken verifies tokenString and returns its claims.
func (ti *TokenIssuer) ParseToken(tokenString string) (*models.MyClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidToken)
	}
	claims := &models.MyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
