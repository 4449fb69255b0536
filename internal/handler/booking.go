package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
	"github.com/iliyamo/campus-room-booking/internal/middleware"
	"github.com/iliyamo/campus-room-booking/internal/model"
)

// BookingService is the part of service.BookingService the HTTP layer
// depends on.
type BookingService interface {
	ListAvailableRooms(ctx context.Context, actor model.Actor, buildingID uint64, slot model.Slot) ([]model.Room, error)
	Create(ctx context.Context, actor model.Actor, roomID uint64, slot model.Slot, purpose string) (model.Booking, error)
	SetStatus(ctx context.Context, actor model.Actor, bookingID uint64, status model.Status) (model.Booking, error)
	ListForRoom(ctx context.Context, roomID uint64, date model.Date) ([]model.Booking, error)
	ListForRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error)
	ListForRequesterDetailed(ctx context.Context, requesterID uint64) ([]model.BookingDetail, error)
	ListManaged(ctx context.Context, actor model.Actor, status model.Status) ([]model.BookingDetail, error)
	Delete(ctx context.Context, actor model.Actor, bookingID uint64) error
}

// BookingHandler serves the booking endpoints under /v1.  Every route
// requires an authenticated actor placed in the context by JWTAuth.
type BookingHandler struct {
	svc BookingService
	loc *time.Location // campus time zone for calendar export
	log *zap.Logger
	now func() time.Time
}

// NewBookingHandler constructs a BookingHandler.  It panics when svc is nil
// because the routes cannot work without it.  A nil loc means UTC.
func NewBookingHandler(svc BookingService, loc *time.Location, log *zap.Logger) *BookingHandler {
	if svc == nil {
		panic("NewBookingHandler: nil service")
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{svc: svc, loc: loc, log: log, now: time.Now}
}

type availabilityQuery struct {
	BuildingID uint64 `query:"building_id" validate:"required,gt=0"`
	Date       string `query:"date" validate:"required"`
	StartTime  string `query:"start_time" validate:"required"`
	EndTime    string `query:"end_time" validate:"required"`
}

type createBookingRequest struct {
	RoomID    uint64 `json:"room_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Purpose   string `json:"purpose" validate:"required,max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// actor returns the authenticated caller.  A missing actor means the route
// was registered without JWTAuth.
func (h *BookingHandler) actor(c echo.Context) (model.Actor, error) {
	a, found := middleware.ActorFrom(c)
	if !found {
		return model.Actor{}, apperr.Unauthorized("authentication required")
	}
	return a, nil
}

// AvailableRooms handles GET /v1/rooms/available.  It lists the rooms of a
// building that have no active booking overlapping the requested slot.
func (h *BookingHandler) AvailableRooms(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var q availabilityQuery
	if err := bindAndValidate(c, &q); err != nil {
		return fail(c, h.log, err)
	}
	slot, err := model.ParseSlot(q.Date, q.StartTime, q.EndTime)
	if err != nil {
		return fail(c, h.log, err)
	}
	rooms, err := h.svc.ListAvailableRooms(c.Request().Context(), actor, q.BuildingID, slot)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, rooms)
}

// CreateBooking handles POST /v1/bookings.  The new booking starts out
// PENDING and belongs to the caller.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req createBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	slot, err := model.ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return fail(c, h.log, err)
	}
	b, err := h.svc.Create(c.Request().Context(), actor, req.RoomID, slot, strings.TrimSpace(req.Purpose))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, b)
}

// MyBookings handles GET /v1/bookings/mine.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	list, err := h.svc.ListForRequester(c.Request().Context(), actor.ID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, list)
}

// RoomBookings handles GET /v1/rooms/:id/bookings?date=YYYY-MM-DD.
func (h *BookingHandler) RoomBookings(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return fail(c, h.log, apperr.Wrap(err, apperr.KindInvalidSlot, "date must be YYYY-MM-DD"))
	}
	list, err := h.svc.ListForRoom(c.Request().Context(), roomID, date)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, list)
}

// ManagedBookings handles GET /v1/bookings.  Incharges see the bookings of
// their buildings and administrators see all of them.  An optional
// ?status= narrows the list.
func (h *BookingHandler) ManagedBookings(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	status := model.Status(normalizeStatus(c.QueryParam("status")))
	list, err := h.svc.ListManaged(c.Request().Context(), actor, status)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, list)
}

// SetStatus handles POST /v1/bookings/:id/status with {"status": "CONFIRMED"}
// or {"status": "REJECTED"}.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	status := model.Status(normalizeStatus(req.Status))
	b, err := h.svc.SetStatus(c.Request().Context(), actor, id, status)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, b)
}

// DeleteBooking handles DELETE /v1/bookings/:id (administrators only).
func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"deleted": id})
}

func normalizeStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
