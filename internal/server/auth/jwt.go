// Package auth issues and verifies the signed access tokens handed to
// clients after a successful login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

var supportedMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// IsSupportedAlgorithm reports whether alg names an HMAC method JWTManager accepts.
func IsSupportedAlgorithm(alg string) bool {
	_, ok := supportedMethods[alg]
	return ok
}

// JWTManager signs and verifies tokens with a process-wide HMAC secret.
// It holds no mutable state and is safe for concurrent use.
type JWTManager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager validates the algorithm name and secret and returns a manager
// whose IssueDefault uses ttl.
func NewJWTManager(secret []byte, algorithm string, ttl time.Duration) (*JWTManager, error) {
	method, ok := supportedMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("empty token secret")
	}
	return &JWTManager{secret: secret, method: method, ttl: ttl, now: time.Now}, nil
}

// Issue returns a token for the user that expires ttl from now.
func (m *JWTManager) Issue(userID, email string, ttl time.Duration) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(m.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
	})

	s, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// IssueDefault is Issue with the configured TTL.
func (m *JWTManager) IssueDefault(userID, email string) (string, error) {
	return m.Issue(userID, email, m.ttl)
}

// Verify checks signature, method and expiry. Expired tokens return
// common.ErrTokenExpired; every other failure returns common.ErrInvalidToken.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
