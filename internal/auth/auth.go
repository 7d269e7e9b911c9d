package auth

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ISSUER  = "github.com/haguru/myblog"
	SUBJECT = "SESSION"

	// SessionCookie carries the session token of browser clients.
	SessionCookie = "session_token"
)

type CustomClaims struct {
	UserID string `json:"userid"`
	jwt.RegisteredClaims
}

// CreateToken issues an ES256 session token for userName valid for ttl.
// audience names the only service that accepts the token.
func CreateToken(userName, audience string, privateKey *ecdsa.PrivateKey, ttl time.Duration) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("private key is nil")
	}
	if audience == "" {
		return "", fmt.Errorf("token audience is empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := time.Now()
	claims := CustomClaims{
		UserID: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ISSUER,
			Subject:   SUBJECT,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signToken, err := token.SignedString(privateKey)
	if err != nil {
		return "", err
	}

	return signToken, nil
}

// VerifyToken parses tokenString and checks its signature, lifetime, issuer and audience.
func VerifyToken(tokenString, audience string, publicKey *ecdsa.PublicKey) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(ISSUER),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token or claims")
}
