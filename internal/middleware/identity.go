package middleware

// identity.go holds the helpers that store and read the authenticated
// actor on the Echo context.

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

const actorKey = "actor"

func setActor(c echo.Context, a model.Actor) {
	c.Set(actorKey, a)
	c.Set("user_id", strconv.FormatUint(a.ID, 10))
	c.Set("role", string(a.Role))
}

// ActorFrom returns the actor stored by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(actorKey).(model.Actor)
	return a, ok && a.ID != 0
}

// currentUserID returns the authenticated user id as a string, or "anon".
func currentUserID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.ID, 10)
	}
	return "anon"
}

func parseID(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// deny writes the API error envelope.  Authentication failures use 401;
// role failures use the Unauthorized kind with 403 like the handlers do.
func deny(c echo.Context, status int, msg string) error {
	kind := "Unauthorized"
	if status == http.StatusTooManyRequests {
		kind = "RateLimited"
	}
	return c.JSON(status, echo.Map{"ok": false, "kind": kind, "message": msg})
}
