package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
	"github.com/iliyamo/campus-room-booking/internal/export"
	"github.com/iliyamo/campus-room-booking/internal/model"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MyCalendar handles GET /v1/bookings/mine.ics.  It returns the caller's
// bookings as an iCalendar feed that calendar clients can subscribe to.
func (h *BookingHandler) MyCalendar(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	list, err := h.svc.ListForRequesterDetailed(c.Request().Context(), actor.ID)
	if err != nil {
		return fail(c, h.log, err)
	}
	body := export.Calendar(list, h.loc, h.now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="bookings.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// ExportManaged handles GET /v1/bookings/export.xlsx.  It downloads the
// same list as ManagedBookings as an Excel workbook.
func (h *BookingHandler) ExportManaged(c echo.Context) error {
	actor, err := h.actor(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	status := model.Status(normalizeStatus(c.QueryParam("status")))
	list, err := h.svc.ListManaged(c.Request().Context(), actor, status)
	if err != nil {
		return fail(c, h.log, err)
	}
	buf, err := export.Workbook(list)
	if err != nil {
		h.log.Error("render workbook", zap.Error(err))
		return fail(c, h.log, apperr.Wrap(err, apperr.KindInternal, "could not generate workbook"))
	}
	name := fmt.Sprintf("bookings-%s.xlsx", h.now().In(h.loc).Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
