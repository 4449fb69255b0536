package utils // package utils provides helper functions for token creation

import (
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Tokens are issued by the campus identity service; this package only
// mints them for local development (cmd/devtoken) and tests, using the
// same claim layout the API expects.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for an actor.  The JWT
// includes sub (user id), role, exp and iat.
func NewAccessToken(secret string, actor model.Actor, ttl time.Duration) (AccessToken, error) {
	if actor.ID == 0 {
		return AccessToken{}, errors.New("actor id is required")
	}
	if _, ok := model.ParseRole(string(actor.Role)); !ok {
		return AccessToken{}, errors.New("unknown role " + string(actor.Role))
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  actor.ID,
		"role": string(actor.Role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
