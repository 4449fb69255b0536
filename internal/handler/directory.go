package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
	"github.com/iliyamo/campus-room-booking/internal/model"
	"github.com/iliyamo/campus-room-booking/internal/repository"
)

// Directory is the read side of the room directory.
type Directory interface {
	ListBuildings(ctx context.Context) ([]model.Building, error)
	ListRoomsInBuilding(ctx context.Context, buildingID uint64) ([]model.Room, error)
}

// DirectoryHandler serves the building and room listings.  The responses
// change rarely and are cached by the Redis response cache in front of it.
type DirectoryHandler struct {
	dir     Directory
	log     *zap.Logger
	timeout time.Duration
}

// NewDirectoryHandler constructs a DirectoryHandler.  A zero timeout
// defaults to five seconds.
func NewDirectoryHandler(dir Directory, log *zap.Logger, timeout time.Duration) *DirectoryHandler {
	if dir == nil {
		panic("NewDirectoryHandler: nil directory")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DirectoryHandler{dir: dir, log: log, timeout: timeout}
}

// ListBuildings handles GET /v1/buildings.
func (h *DirectoryHandler) ListBuildings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	list, err := h.dir.ListBuildings(ctx)
	if err != nil {
		return fail(c, h.log, directoryError(err))
	}
	return ok(c, http.StatusOK, list)
}

// ListRooms handles GET /v1/buildings/:id/rooms.
func (h *DirectoryHandler) ListRooms(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	list, err := h.dir.ListRoomsInBuilding(ctx, id)
	if err != nil {
		return fail(c, h.log, directoryError(err))
	}
	return ok(c, http.StatusOK, list)
}

func directoryError(err error) error {
	switch {
	case errors.Is(err, repository.ErrBuildingNotFound):
		return apperr.NotFound("building")
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(err, apperr.KindTimeout, "directory lookup timed out")
	case errors.Is(err, repository.ErrUnavailable):
		return apperr.Wrap(err, apperr.KindStoreUnavailable, "room directory unavailable")
	}
	return apperr.Wrap(err, apperr.KindInternal, "internal error")
}
