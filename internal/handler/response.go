package handler // handler defines the HTTP handlers of the booking API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
)

// StatusFor maps an error kind to its HTTP status.  The mapping belongs to
// the transport; the service only knows kinds.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput, apperr.KindInvalidSlot:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindSlotConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindTimeout, apperr.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ok writes {"ok": true, "data": data}.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"ok": true, "data": data})
}

// fail writes {"ok": false, "kind": ..., "message": ...} with the status
// for err's kind.  Server side failures are logged with their cause.
func fail(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("kind", string(kind)),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.JSON(status, echo.Map{"ok": false, "kind": kind, "message": apperr.MessageOf(err)})
}
