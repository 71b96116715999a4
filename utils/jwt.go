package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
)

// RoleAdmin is the role claim required by the operational endpoints.
const RoleAdmin = "admin"

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

// InitJWT sets the HMAC secret used to sign and verify tokens.
func InitJWT(secret string) {
	secretMu.Lock()
	secretKey = []byte(secret)
	secretMu.Unlock()
}

func currentSecret() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(secretKey) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	return secretKey, nil
}

// GenerateToken creates a signed JWT token with the given subject and role.
// The token expires after the specified duration.
func GenerateToken(subject, role string, duration time.Duration) (string, error) {
	key, err := currentSecret()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	key, err := currentSecret()
	if err != nil {
		return nil, err
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
}

// ExtractRoleFromToken returns the subject and role claims of a valid token.
func ExtractRoleFromToken(tokenString string) (subject, role string, err error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	subject, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if subject == "" {
		return "", "", errors.New("token does not contain a valid 'sub' claim")
	}
	return subject, role, nil
}
