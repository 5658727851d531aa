package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
)

const issuer = "leave-management"

// JWTTokenGenerator signs RS256 tokens with the configured key pair.
type JWTTokenGenerator struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	clock           clock.Clock
}

func NewJWTTokenGenerator(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, accessTTL, refreshTTL time.Duration, clk clock.Clock) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		privateKey:      privateKey,
		publicKey:       publicKey,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		clock:           clk,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(subject Subject) (string, error) {
	return j.sign(subject, TokenTypeAccess, j.AccessTokenTTL)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(subject Subject) (string, error) {
	return j.sign(subject, TokenTypeRefresh, j.RefreshTokenTTL)
}

func (j *JWTTokenGenerator) sign(subject Subject, tokenType TokenType, ttl time.Duration) (string, error) {
	now := j.clock.Now()
	userID := strconv.FormatInt(subject.UserID, 10)

	claims := &Claims{
		UserID:    userID,
		Email:     subject.Email,
		Role:      subject.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateToken verifies signature, expiry and token type.
func (j *JWTTokenGenerator) ValidateToken(tokenString string, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(j.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}
	if !token.Valid || claims.TokenType != expected {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
