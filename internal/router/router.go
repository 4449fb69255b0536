package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-booking/internal/handler"
	"github.com/iliyamo/campus-room-booking/internal/middleware"
	"github.com/iliyamo/campus-room-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// Options carries the per-route middleware built by the caller.  A nil
// RateLimit or Cache leaves the routes unwrapped.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc // applied after JWTAuth so keys can use the user id
	Cache     echo.MiddlewareFunc // wraps the room directory only
}

// RegisterAPI registers the authenticated /v1 API.  Every route needs a
// valid access token.  Approving and listing managed bookings is limited
// to incharges and administrators, and deleting a booking to
// administrators.
func RegisterAPI(e *echo.Echo, b *handler.BookingHandler, d *handler.DirectoryHandler, opts Options) {
	v1 := e.Group("/v1", middleware.JWTAuth(opts.JWTSecret))
	if opts.RateLimit != nil {
		v1.Use(opts.RateLimit)
	}

	// Room directory.  Reference data, safe to cache.
	var cached []echo.MiddlewareFunc
	if opts.Cache != nil {
		cached = append(cached, opts.Cache)
	}
	v1.GET("/buildings", d.ListBuildings, cached...)
	v1.GET("/buildings/:id/rooms", d.ListRooms, cached...)

	// Availability and per-room schedules are always read fresh.
	v1.GET("/rooms/available", b.AvailableRooms)
	v1.GET("/rooms/:id/bookings", b.RoomBookings)

	// Requests.
	v1.POST("/bookings", b.CreateBooking)
	v1.GET("/bookings/mine", b.MyBookings)
	v1.GET("/bookings/mine.ics", b.MyCalendar)

	// Approval.
	approvers := middleware.RequireRole(model.RoleIncharge, model.RoleAdmin)
	v1.GET("/bookings", b.ManagedBookings, approvers)
	v1.GET("/bookings/export.xlsx", b.ExportManaged, approvers)
	v1.POST("/bookings/:id/status", b.SetStatus, approvers)

	v1.DELETE("/bookings/:id", b.DeleteBooking, middleware.RequireRole(model.RoleAdmin))
}
