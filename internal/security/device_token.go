package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer identifies tokens minted by this server
const TokenIssuer = "pyquest"

// DeviceClaims binds a token to one device profile. Every profile owns an
// independent store of players.
type DeviceClaims struct {
	jwt.RegisteredClaims
	ProfileID string `json:"pid"`
}

// GenerateDeviceToken signs a token for profileID valid for ttl
func GenerateDeviceToken(profileID, secret string, ttl time.Duration) (string, error) {
	if profileID == "" {
		return "", errors.New("profile ID is required")
	}
	now := time.Now()
	claims := DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ProfileID: profileID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign device token: %w", err)
	}
	return signed, nil
}

// ParseDeviceToken validates a token and returns the profile it belongs to
func ParseDeviceToken(tokenString, secret string) (string, error) {
	claims := &DeviceClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse device token: %w", err)
	}
	if !token.Valid || claims.ProfileID == "" {
		return "", errors.New("invalid device token")
	}
	return claims.ProfileID, nil
}
