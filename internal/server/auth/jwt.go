// Package auth issues and checks the service tokens editor clients present
// to the template server.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the editor name the token was
// issued to.
type Claims struct {
	jwt.RegisteredClaims
	Editor string `json:"editor"`
}

func GenerateToken(editor string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    common.AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Editor: editor,
	})

	return token.SignedString(secretKey)
}

// EditorFromToken validates tokenString and returns the editor it names.
func EditorFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Editor == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Editor, nil
}
