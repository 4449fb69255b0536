// Package export renders bookings into downloadable formats: an iCalendar
// feed for requesters and an Excel workbook for approvers.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

const productID = "-//campus-room-booking//bookings//EN"

// calendarStatus maps booking status onto RFC 5545 event status.
var calendarStatus = map[model.Status]ics.ObjectStatus{
	model.StatusPending:   ics.ObjectStatusTentative,
	model.StatusConfirmed: ics.ObjectStatusConfirmed,
	model.StatusRejected:  ics.ObjectStatusCancelled,
}

// SlotBounds returns the instants a slot starts and ends, interpreting its
// times of day in loc.
func SlotBounds(s model.Slot, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := s.Date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(s.Start) * time.Minute), midnight.Add(time.Duration(s.End) * time.Minute)
}

// Calendar serialises bookings as an iCalendar document, one VEVENT per
// booking.  Rejected bookings stay in the feed as CANCELLED so calendar
// clients remove them.
func Calendar(bookings []model.BookingDetail, loc *time.Location, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Room bookings")

	for _, b := range bookings {
		start, end := SlotBounds(b.Slot, loc)
		ev := cal.AddEvent(fmt.Sprintf("booking-%d@campus-room-booking", b.ID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(b.Purpose)
		ev.SetLocation(location(b))
		ev.SetDescription(fmt.Sprintf("Booking %d (%s)", b.ID, b.Status))
		if !b.CreatedAt.IsZero() {
			ev.SetCreatedTime(b.CreatedAt)
		}
		if !b.UpdatedAt.IsZero() {
			ev.SetModifiedAt(b.UpdatedAt)
		}
		if st, ok := calendarStatus[b.Status]; ok {
			ev.SetStatus(st)
		}
	}
	return cal.Serialize()
}

// location names the room the way people find it on campus.
func location(b model.BookingDetail) string {
	switch {
	case b.RoomName != "" && b.BuildingName != "":
		return b.RoomName + " (" + b.BuildingName + ")"
	case b.RoomName != "":
		return b.RoomName
	}
	return fmt.Sprintf("Room %d", b.RoomID)
}
