// Package session carries the logged-in user's identity explicitly through
// the pipeline. It replaces the mobile app's ambient key-value reads: loaded
// once at startup, injected where needed, cleared on logout.
package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Errors
var (
	ErrNotAuthenticated = errors.New("session: not authenticated")
	ErrInvalidToken     = errors.New("session: invalid token")
)

// Claims is the payload of the backend-issued access token.
type Claims struct {
	UserUID string `json:"user_uid"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// Session is the per-login identity state.
type Session struct {
	UserUID string
	Email   string
	Token   string
}

// New builds a session from explicitly supplied identity values.
func New(userUID, email string) (*Session, error) {
	if userUID == "" || email == "" {
		return nil, ErrNotAuthenticated
	}
	return &Session{UserUID: userUID, Email: email}, nil
}

// FromToken builds a session from a backend-issued JWT. With a secret the
// signature is verified; without one the claims are only parsed, which is
// enough for a client that merely needs its own identity back out of the
// token.
func FromToken(tokenStr string, secret []byte) (*Session, error) {
	var claims Claims

	if len(secret) > 0 {
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
			return nil, ErrInvalidToken
		}
	}

	if claims.UserUID == "" {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserUID: claims.UserUID,
		Email:   claims.Email,
		Token:   tokenStr,
	}, nil
}

// Authenticated reports whether the session carries an identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserUID != ""
}

// Clear wipes the session on logout.
func (s *Session) Clear() {
	s.UserUID = ""
	s.Email = ""
	s.Token = ""
}
