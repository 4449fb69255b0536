package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and turns its claims into a request-scoped model.Actor.  The token must
// be HS256-signed with secret and carry a numeric subject ("sub") and a
// role claim.  Handlers read the actor with ActorFrom; "user_id" and
// "role" are also set for the rate limiter and logs.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HMAC tokens signed with our secret are accepted.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return deny(c, http.StatusUnauthorized, "invalid claims")
			}
			actor, ok := actorFromClaims(claims)
			if !ok {
				return deny(c, http.StatusUnauthorized, "token has no usable subject or role")
			}

			setActor(c, actor)
			return next(c)
		}
	}
}

// actorFromClaims reads sub and role.  sub may be encoded as a JSON number
// or a decimal string.
func actorFromClaims(claims jwt.MapClaims) (model.Actor, bool) {
	var id uint64
	switch v := claims["sub"].(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return model.Actor{}, false
		}
		id = uint64(v)
	case string:
		n, err := parseID(v)
		if err != nil {
			return model.Actor{}, false
		}
		id = n
	default:
		return model.Actor{}, false
	}
	roleClaim, _ := claims["role"].(string)
	role, ok := model.ParseRole(roleClaim)
	if !ok {
		return model.Actor{}, false
	}
	return model.Actor{ID: id, Role: role}, true
}
