package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// RequireRole returns a middleware that lets the request through only when
// the actor stored by JWTAuth has one of roles.  It must be registered
// after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, "unauthenticated")
			}
			if !allowed[actor.Role] {
				return deny(c, http.StatusForbidden, "role "+string(actor.Role)+" may not use this endpoint")
			}
			return next(c)
		}
	}
}
